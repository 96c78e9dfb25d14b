package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput indicates a storage call received invalid arguments.
var ErrInvalidInput = errors.New("invalid input")

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("%w: context is nil", ErrInvalidInput)
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidInput, name)
	}
	return nil
}
