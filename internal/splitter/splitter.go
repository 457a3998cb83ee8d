// Package splitter detects chapter boundaries in paginated source text.
package splitter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/creedhall/doctrine/internal/types"
)

// headScanLines is how many lines at the top of a page are scanned for a
// chapter heading. Headings further down a page are continuation text.
const headScanLines = 5

// Heading patterns, tried in order. The first matching line on a page opens
// a new chapter.
var headingPatterns = []*regexp.Regexp{
	// "Chapter 4", "CHAPTER XII", "Chapter 4: The Long March"
	regexp.MustCompile(`(?i)^\s*chapter\s+(?:\d+|[ivxlcdm]+)\b`),
	// Bare roman numeral headings: "XIV", "VII."
	regexp.MustCompile(`^\s*[IVXLCDM]+\.?\s*$`),
	// "4. The Long March"
	regexp.MustCompile(`^\s*\d+\.\s+\S`),
}

// DetectionError indicates no chapter boundaries were found in the document.
// A document with zero detected headings is never treated as one big chapter;
// that would silently produce a single mislabeled doctrine record.
type DetectionError struct {
	BookID string
	Pages  int
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("no chapter boundaries detected in %d pages of book %s", e.Pages, e.BookID)
}

// Split scans ordered pages for chapter headings and returns the resulting
// chapters in document order with 1-based contiguous indices.
//
// A chapter spans from its opening page to the page before the next detected
// opening, or to document end for the last chapter. Splitting is
// deterministic: identical pages always yield identical boundaries and
// content hashes.
func Split(bookID string, pages []types.Page) ([]types.Chapter, error) {
	type boundary struct {
		pageIdx int // index into pages
		title   string
	}

	var boundaries []boundary
	for i, page := range pages {
		if title, ok := detectHeading(page.Text); ok {
			boundaries = append(boundaries, boundary{pageIdx: i, title: title})
		}
	}

	if len(boundaries) == 0 {
		return nil, &DetectionError{BookID: bookID, Pages: len(pages)}
	}

	chapters := make([]types.Chapter, 0, len(boundaries))
	for bi, b := range boundaries {
		endIdx := len(pages) - 1
		if bi+1 < len(boundaries) {
			endIdx = boundaries[bi+1].pageIdx - 1
		}

		texts := make([]string, 0, endIdx-b.pageIdx+1)
		for _, p := range pages[b.pageIdx : endIdx+1] {
			texts = append(texts, p.Text)
		}
		text := strings.Join(texts, "\n")

		chapters = append(chapters, types.Chapter{
			BookID:      bookID,
			Index:       bi + 1,
			Title:       b.title,
			Text:        text,
			StartPage:   pages[b.pageIdx].Number,
			EndPage:     pages[endIdx].Number,
			ContentHash: HashText(text),
		})
	}

	return chapters, nil
}

// detectHeading scans the first lines of a page for a chapter heading.
// Returns the trimmed heading line and whether one was found.
func detectHeading(pageText string) (string, bool) {
	lines := strings.Split(pageText, "\n")
	if len(lines) > headScanLines {
		lines = lines[:headScanLines]
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		for _, re := range headingPatterns {
			if re.MatchString(trimmed) {
				return trimmed, true
			}
		}
	}
	return "", false
}

// HashText returns the SHA-256 hex digest of text. This is the content hash
// recorded on chapters at split time and compared by the recovery gate.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
