// Package review provides the durable queue of paths awaiting a human
// decision.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation and domain errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidID       = errors.New("id must be positive")
	ErrNotFound        = errors.New("review item not found")
	ErrNotPending      = errors.New("review item is not pending")
	ErrInvalidDecision = errors.New("decision must be include or ignore")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures a row id is usable.
func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}
