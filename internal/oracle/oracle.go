// Package oracle is the call boundary to the external text-to-structured-data
// extraction collaborator. The oracle is treated as an untrusted, possibly
// slow or flaky black box: calls are retried a bounded number of times with
// backoff, and every returned payload is structurally validated and decoded
// at this boundary before the rest of the pipeline sees it.
package oracle

import (
	"context"
	"fmt"

	"github.com/creedhall/doctrine/internal/types"
)

// Oracle extracts structured doctrine fragments from a bounded text window.
type Oracle interface {
	// Extract returns the candidate partial extraction for one window.
	// Implementations handle their own retry policy; a returned error means
	// the window, and therefore its chapter, has failed.
	Extract(ctx context.Context, window string) (*types.PartialExtraction, error)
}

// OracleError indicates an extraction call failed after exhausting retries,
// or returned output that could not be parsed as an extraction payload.
type OracleError struct {
	Attempts int
	Err      error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle extraction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// ShapeError indicates a partial-extraction item could not be coerced to the
// expected string or int shape. Unknown shapes are never silently
// stringified; that would mask extraction bugs.
type ShapeError struct {
	Field string
	Item  string // JSON text of the offending item
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("uncoercible item in %s: %s", e.Field, e.Item)
}
