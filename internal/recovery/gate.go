// Package recovery decides, per chapter, whether a run can skip work that is
// already durably committed. This is what makes repeated runs over a
// partially-completed source cheap: a done chapter costs one hash
// comparison, not re-extraction.
package recovery

import (
	"fmt"

	"github.com/creedhall/doctrine/internal/store"
	"github.com/creedhall/doctrine/internal/types"
)

// Decision is the gate's verdict for one chapter.
type Decision int

const (
	// Process means no committed doctrine exists; the chapter needs the
	// full extraction pipeline.
	Process Decision = iota
	// Skip means a committed doctrine exists and its source hash matches
	// the chapter's current content hash; re-running is an idempotent no-op.
	Skip
)

// IntegrityError signals that a stored doctrine's source hash does not match
// the freshly computed content hash of the chapter's current text: the same
// book_id now points at different source content. This is operator misuse of
// identity, not a transient fault; the operator must mint a new book_id
// rather than have the system silently re-ingest over a stable identity.
type IntegrityError struct {
	BookID      string
	Index       int
	StoredHash  string
	CurrentHash string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("source drift under reused book_id %s: chapter %d committed with hash %.12s but current text hashes to %.12s",
		e.BookID, e.Index, e.StoredHash, e.CurrentHash)
}

// Gate makes skip/process decisions against a ledger scanned at startup.
type Gate struct {
	ledger *store.Ledger
}

// NewGate creates a gate over a scanned ledger.
func NewGate(ledger *store.Ledger) *Gate {
	return &Gate{ledger: ledger}
}

// Decide returns the verdict for one chapter.
func (g *Gate) Decide(ch types.Chapter) (Decision, error) {
	stored, ok := g.ledger.Committed(ch.Index)
	if !ok {
		return Process, nil
	}
	if stored == ch.ContentHash {
		return Skip, nil
	}
	return Process, &IntegrityError{
		BookID:      ch.BookID,
		Index:       ch.Index,
		StoredHash:  stored,
		CurrentHash: ch.ContentHash,
	}
}
