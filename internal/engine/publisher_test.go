package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leasewatch/leasewatch/internal/model"
	"github.com/leasewatch/leasewatch/internal/service"
)

// failingCatalog wraps a real catalog and fails CreateVersion for
// selected template ids.
type failingCatalog struct {
	service.CatalogStore
	failFor map[string]error
}

func (c *failingCatalog) CreateVersion(ctx context.Context, templateID string, reviewEntryID int64, notes, reason, actor string) (*model.TemplateVersion, error) {
	if err, ok := c.failFor[templateID]; ok {
		return nil, err
	}
	return c.CatalogStore.CreateVersion(ctx, templateID, reviewEntryID, notes, reason, actor)
}

type recordingNotifier struct {
	events []string
	err    error
}

func (n *recordingNotifier) TemplatePublished(_ context.Context, templateID string, version int, _ string) error {
	n.events = append(n.events, templateID)
	return n.err
}

func snapshotFor(t *testing.T, ctx context.Context, catalog service.CatalogStore, jurisdictionID string) map[string]model.Template {
	t.Helper()
	templates, err := catalog.ListTemplates(ctx, jurisdictionID)
	require.NoError(t, err)
	snapshot := make(map[string]model.Template, len(templates))
	for _, tmpl := range templates {
		snapshot[tmpl.ID] = tmpl
	}
	return snapshot
}

func TestProcess_PartialFailureIsolation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	catalog := &failingCatalog{
		CatalogStore: store,
		failFor:      map[string]error{"ut-lease-v3": errors.New("disk full")},
	}
	publisher := NewReviewPublisher(store, catalog, nil, testLogger())

	candidate := billCandidate("UT", "HB 204", "Security Deposit Return Timeline Extension")
	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceHigh,
		AffectedTemplateIDs: []string{"ut-lease-v3", "ut-eviction-notice"},
	}

	outcome := publisher.Process(ctx, "run-1", candidate, verdict, snapshotFor(t, ctx, store, "UT"))

	assert.Equal(t, 1, outcome.Published)
	assert.Equal(t, 1, outcome.Rejected)

	// The failed template got a rejected entry with the cause recorded.
	entries, err := store.ListReviewEntries(ctx, service.ReviewFilter{Status: model.ReviewRejected})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ut-lease-v3", entries[0].TemplateID)
	assert.True(t, strings.Contains(entries[0].Reason, "disk full"))

	// The healthy template still published.
	tmpl, err := store.GetTemplate(ctx, "ut-eviction-notice")
	require.NoError(t, err)
	assert.Equal(t, 1, tmpl.CurrentVersion)

	approved, err := store.ListReviewEntries(ctx, service.ReviewFilter{Status: model.ReviewApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "ut-eviction-notice", approved[0].TemplateID)
}

func TestProcess_SkipsTemplatesOutsideSnapshot(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	publisher := NewReviewPublisher(store, store, nil, testLogger())
	candidate := billCandidate("UT", "HB 204", "Security Deposit Return Timeline Extension")
	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceHigh,
		AffectedTemplateIDs: []string{"nv-lease"}, // wrong jurisdiction
	}

	outcome := publisher.Process(ctx, "run-1", candidate, verdict, snapshotFor(t, ctx, store, "UT"))

	assert.Zero(t, outcome.Published)
	assert.Zero(t, outcome.Rejected)

	entries, err := store.ListReviewEntries(ctx, service.ReviewFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcess_DegradedVerdictFlaggedInReason(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	publisher := NewReviewPublisher(store, store, nil, testLogger())
	candidate := billCandidate("UT", "HB 377", "Eviction notice requirements")
	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceMedium,
		AffectedTemplateIDs: []string{"ut-eviction-notice"},
		Degraded:            true,
	}

	outcome := publisher.Process(ctx, "run-1", candidate, verdict, snapshotFor(t, ctx, store, "UT"))
	assert.Equal(t, 1, outcome.Published)

	entries, err := store.ListReviewEntries(ctx, service.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Reason, "heuristic verdict")
	assert.Equal(t, 5, entries[0].Priority)
}

func TestProcess_VersionNotesCarryRecommendedChanges(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	publisher := NewReviewPublisher(store, store, nil, testLogger())
	candidate := billCandidate("UT", "HB 204", "Security Deposit Return Timeline Extension")
	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceHigh,
		Analysis:            "This bill extends the deposit return window for residential leases.",
		AffectedTemplateIDs: []string{"ut-lease-v3"},
		RecommendedChanges:  "Extend the security deposit return deadline to 45 days in clause 7.",
	}

	outcome := publisher.Process(ctx, "run-1", candidate, verdict, snapshotFor(t, ctx, store, "UT"))
	require.Equal(t, 1, outcome.Published)

	versions, err := store.ListVersions(ctx, "ut-lease-v3")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, verdict.RecommendedChanges, versions[0].Notes)
	assert.Contains(t, versions[0].Reason, "HB 204")

	entries, err := store.ListReviewEntries(ctx, service.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, verdict.Analysis, entries[0].Analysis)
	assert.Equal(t, verdict.RecommendedChanges, entries[0].RecommendedChanges)
}

func TestProcess_NotifierFailureIsBestEffort(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	notifier := &recordingNotifier{err: errors.New("webhook down")}
	publisher := NewReviewPublisher(store, store, notifier, testLogger())

	candidate := billCandidate("UT", "HB 204", "Security Deposit Return Timeline Extension")
	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceHigh,
		AffectedTemplateIDs: []string{"ut-lease-v3"},
	}

	outcome := publisher.Process(ctx, "run-1", candidate, verdict, snapshotFor(t, ctx, store, "UT"))

	assert.Equal(t, 1, outcome.Published, "notification failure must not affect the publish")
	assert.Equal(t, []string{"ut-lease-v3"}, notifier.events)

	entries, err := store.ListReviewEntries(ctx, service.ReviewFilter{Status: model.ReviewApproved})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcess_RecordsOpenedAtVersion(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Advance the template before the candidate arrives.
	_, err := store.CreateVersion(ctx, "ut-lease-v3", 0, "", "initial", "system")
	require.NoError(t, err)

	publisher := NewReviewPublisher(store, store, nil, testLogger())
	candidate := billCandidate("UT", "HB 500", "Lease renewal disclosures")
	verdict := model.RelevanceVerdict{
		Level:               model.RelevanceHigh,
		AffectedTemplateIDs: []string{"ut-lease-v3"},
	}

	publisher.Process(ctx, "run-1", candidate, verdict, snapshotFor(t, ctx, store, "UT"))

	entries, err := store.ListReviewEntries(ctx, service.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].OpenedAtVersion)

	tmpl, err := store.GetTemplate(ctx, "ut-lease-v3")
	require.NoError(t, err)
	assert.Equal(t, 2, tmpl.CurrentVersion)
}
