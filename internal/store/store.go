// Package store persists per-chapter artifacts with create-once,
// crash-safe semantics. Artifact presence at the final path is the
// resumability ledger; there is no separate transaction log.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/creedhall/doctrine/internal/types"
)

// ErrAlreadyCommitted is returned when a commit targets a chapter that
// already has fully-written artifacts. Commits are create-only; no update
// path exists.
var ErrAlreadyCommitted = fmt.Errorf("chapter already committed")

// Store writes chapter artifacts under a root directory, one subdirectory
// per book:
//
//	<root>/<book_id>/chapter_0001.txt   raw chapter text
//	<root>/<book_id>/chapter_0001.json  doctrine record
//
// The doctrine JSON is the commit marker: it is renamed into place last, so
// its presence means both artifacts are fully written.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: dir, logger: logger.With("component", "store")}
}

// RawPath returns the raw-text artifact path for a chapter.
func (s *Store) RawPath(bookID string, index int) string {
	return filepath.Join(s.root, bookID, fmt.Sprintf("chapter_%04d.txt", index))
}

// DoctrinePath returns the doctrine artifact path for a chapter.
func (s *Store) DoctrinePath(bookID string, index int) string {
	return filepath.Join(s.root, bookID, fmt.Sprintf("chapter_%04d.json", index))
}

// Exists reports whether a chapter has fully committed artifacts.
func (s *Store) Exists(bookID string, index int) bool {
	_, err := os.Stat(s.DoctrinePath(bookID, index))
	return err == nil
}

// Commit writes both artifacts for a chapter atomically. Each file is
// written to a same-directory temp file and renamed into place; the raw text
// first, the doctrine JSON last. A crash between the two renames leaves a
// stale raw file without its commit marker, which the next Commit sweeps
// before retrying. Never exposes a half-written artifact.
func (s *Store) Commit(bookID string, ch types.Chapter, d *types.Doctrine) error {
	if s.Exists(bookID, ch.Index) {
		return fmt.Errorf("%w: %s chapter %d", ErrAlreadyCommitted, bookID, ch.Index)
	}

	dir := filepath.Join(s.root, bookID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create book directory: %w", err)
	}

	rawPath := s.RawPath(bookID, ch.Index)
	docPath := s.DoctrinePath(bookID, ch.Index)

	// Torn commit from a previous crash: raw renamed, marker never was.
	if _, err := os.Stat(rawPath); err == nil {
		s.logger.Warn("sweeping stale raw artifact from interrupted commit",
			"book_id", bookID, "chapter", ch.Index)
		if err := os.Remove(rawPath); err != nil {
			return fmt.Errorf("failed to remove stale raw artifact: %w", err)
		}
	}

	docJSON, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal doctrine: %w", err)
	}

	if err := writeAtomic(rawPath, []byte(ch.Text)); err != nil {
		return fmt.Errorf("failed to write raw artifact: %w", err)
	}
	if err := writeAtomic(docPath, docJSON); err != nil {
		// Roll the raw artifact back so the chapter stays uncommitted.
		os.Remove(rawPath)
		return fmt.Errorf("failed to write doctrine artifact: %w", err)
	}

	s.logger.Debug("committed chapter", "book_id", bookID, "chapter", ch.Index)
	return nil
}

// LoadDoctrine reads a committed doctrine record.
func (s *Store) LoadDoctrine(bookID string, index int) (*types.Doctrine, error) {
	data, err := os.ReadFile(s.DoctrinePath(bookID, index))
	if err != nil {
		return nil, fmt.Errorf("failed to read doctrine artifact: %w", err)
	}
	var d types.Doctrine
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode doctrine artifact: %w", err)
	}
	return &d, nil
}

// writeAtomic writes data to a same-directory temp file, syncs it, and
// renames it to dest so the file is either fully visible or absent.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".commit-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
