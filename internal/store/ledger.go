package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var doctrineFileRe = regexp.MustCompile(`^chapter_(\d{4})\.json$`)

// Ledger is the committed-chapter ledger for one book, computed once from
// storage at startup and passed into the coordinator. It maps each committed
// chapter index to the SourceHash recorded in its doctrine artifact.
//
// The ledger is derived purely from artifact presence; it is never
// maintained as independent state.
type Ledger struct {
	bookID string
	hashes map[int]string
}

// BookID returns the book this ledger was scanned for.
func (l *Ledger) BookID() string { return l.bookID }

// Committed returns the stored source hash for a chapter index and whether
// that chapter has a committed doctrine artifact.
func (l *Ledger) Committed(index int) (string, bool) {
	h, ok := l.hashes[index]
	return h, ok
}

// Indices returns all committed chapter indices in ascending order.
func (l *Ledger) Indices() []int {
	out := make([]int, 0, len(l.hashes))
	for idx := range l.hashes {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of committed chapters.
func (l *Ledger) Len() int { return len(l.hashes) }

// ScanLedger builds the ledger for a book by reading every committed
// doctrine artifact under the store root. A book with no directory yet
// yields an empty ledger.
func (s *Store) ScanLedger(bookID string) (*Ledger, error) {
	ledger := &Ledger{bookID: bookID, hashes: make(map[int]string)}

	entries, err := os.ReadDir(filepath.Join(s.root, bookID))
	if err != nil {
		if os.IsNotExist(err) {
			return ledger, nil
		}
		return nil, fmt.Errorf("failed to scan book directory: %w", err)
	}

	for _, entry := range entries {
		m := doctrineFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		d, err := s.LoadDoctrine(bookID, index)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger entry for chapter %d: %w", index, err)
		}
		ledger.hashes[index] = d.SourceHash
	}

	return ledger, nil
}
