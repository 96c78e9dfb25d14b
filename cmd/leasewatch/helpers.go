package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/leasewatch/leasewatch/internal/classify"
	"github.com/leasewatch/leasewatch/internal/config"
	"github.com/leasewatch/leasewatch/internal/engine"
	"github.com/leasewatch/leasewatch/internal/llm"
	"github.com/leasewatch/leasewatch/internal/notify"
	"github.com/leasewatch/leasewatch/internal/service"
	"github.com/leasewatch/leasewatch/internal/source"
	"github.com/leasewatch/leasewatch/internal/storage"
)

// initStorage opens the database with proper path expansion and runs
// migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/leasewatch/leasewatch.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// buildSources constructs the configured feeds. A source without
// credentials stays in the list but reports disabled.
func buildSources(logger *slog.Logger) []engine.Source {
	bills := source.NewBillSource(source.BillConfig{
		APIKey:  viper.GetString("sources.bills.api_key"),
		BaseURL: viper.GetString("sources.bills.base_url"),
	}, logger)

	cases := source.NewCaseLawSource(source.CaseConfig{
		APIKey:      viper.GetString("sources.caselaw.api_key"),
		BaseURL:     viper.GetString("sources.caselaw.base_url"),
		FetchBodies: viper.GetBool("sources.caselaw.fetch_bodies"),
	}, logger)

	return []engine.Source{bills, cases}
}

// buildClassifier constructs the relevance classifier. Without an LLM
// provider configured it falls back to heuristic-only operation.
func buildClassifier(logger *slog.Logger) (*classify.Classifier, llm.Client, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		logger.Warn("no LLM provider configured, using heuristic classification only")
		return classify.NewClassifier(nil, logger, service.RetryOptions{}), nil, nil
	}

	client, err := llm.NewClient(llm.Config{
		Provider:    provider,
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return classify.NewClassifier(client, logger, service.RetryOptions{}), client, nil
}

// buildNotifier constructs the publish event notifier.
func buildNotifier(logger *slog.Logger) *notify.WebhookNotifier {
	return notify.NewWebhookNotifier(viper.GetString("notify.webhook_url"), logger)
}
