// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Pipeline errors.
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrPublishConflict   = errors.New("publish conflict")
	ErrLedgerWrite       = errors.New("ledger write failed")

	// Configuration errors.
	ErrMissingCredential = errors.New("missing API credential")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
