// Package types provides shared types used across multiple packages.
// This package has no dependencies on other doctrine packages to avoid import cycles.
package types

// Page is one unit of paginated source text, produced by an external
// text-extraction collaborator. This core never parses binary formats.
type Page struct {
	Number int    // 1-indexed page number
	Text   string // Full plain text of the page
}

// Chapter is one detected structural unit of the source document.
// Chapters are immutable after splitting: ContentHash is computed once from
// Text at split time and never recomputed from stored data.
type Chapter struct {
	BookID      string // Book this chapter belongs to
	Index       int    // 1-based, contiguous chapter index
	Title       string // Heading line that opened the chapter
	Text        string // Full chapter text (all pages joined)
	StartPage   int    // First page of the chapter
	EndPage     int    // Last page of the chapter (inclusive)
	ContentHash string // SHA-256 hex digest of Text, fixed at split time
}

// PartialExtraction is one window's raw extraction output, pre-assembly.
// It is ephemeral: produced by the oracle for a single text window within a
// chapter, consumed by the assembler and discarded.
type PartialExtraction struct {
	Principles      []string `json:"principles"`
	Claims          []string `json:"claims"`
	Rules           []string `json:"rules"`
	Warnings        []string `json:"warnings"`
	CrossReferences []int    `json:"cross_references"`
}

// Doctrine is the canonical structured-extraction record for one chapter.
// It is immutable after a successful commit: there is no update path, only
// create-once. SourceHash carries the chapter's ContentHash captured at
// split time, which is what makes idempotent resume and drift detection work.
type Doctrine struct {
	BookID          string   `json:"book_id"`
	ChapterIndex    int      `json:"chapter_index"`
	ChapterTitle    string   `json:"chapter_title"`
	Principles      []string `json:"principles"`
	Claims          []string `json:"claims"`
	Rules           []string `json:"rules"`
	Warnings        []string `json:"warnings"`
	CrossReferences []int    `json:"cross_references"`
	SourceHash      string   `json:"source_hash"`
}
