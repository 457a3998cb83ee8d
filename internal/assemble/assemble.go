// Package assemble merges a chapter's ordered partial extractions into one
// doctrine record and checks that record's structural schema.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/creedhall/doctrine/internal/types"
)

// Assemble merges ordered partial extractions into a single doctrine record.
//
// Merge policy: principles/claims/rules/warnings are concatenated across
// windows in window order and deduplicated by exact string equality,
// preserving first-seen order. cross_references are the sorted ascending
// union across all windows; it is the one field whose output ordering is
// canonicalized rather than preserved, because downstream consumers diff it.
//
// SourceHash is the chapter's ContentHash captured at split time, not
// re-read at assembly time.
func Assemble(ch types.Chapter, parts []*types.PartialExtraction) *types.Doctrine {
	d := &types.Doctrine{
		BookID:       ch.BookID,
		ChapterIndex: ch.Index,
		ChapterTitle: ch.Title,
		SourceHash:   ch.ContentHash,
	}

	d.Principles = mergeStrings(parts, func(p *types.PartialExtraction) []string { return p.Principles })
	d.Claims = mergeStrings(parts, func(p *types.PartialExtraction) []string { return p.Claims })
	d.Rules = mergeStrings(parts, func(p *types.PartialExtraction) []string { return p.Rules })
	d.Warnings = mergeStrings(parts, func(p *types.PartialExtraction) []string { return p.Warnings })
	d.CrossReferences = mergeRefs(parts)

	return d
}

// mergeStrings concatenates one field across windows, stable-deduplicated.
func mergeStrings(parts []*types.PartialExtraction, field func(*types.PartialExtraction) []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range parts {
		for _, s := range field(p) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// mergeRefs returns the sorted, deduplicated union of cross references.
func mergeRefs(parts []*types.PartialExtraction) []int {
	set := make(map[int]struct{})
	for _, p := range parts {
		for _, n := range p.CrossReferences {
			set[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ValidationError indicates an assembled doctrine record fails its schema.
// Fields names every offending collection; partial or best-effort records
// are never accepted.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("doctrine record failed validation: %s", strings.Join(e.Fields, ", "))
}

// Validate checks an assembled doctrine record's structural schema.
// Pure and side-effect free: all five collections must be present,
// principles/claims/rules/warnings must contain only non-empty strings, and
// cross_references only integers. (Go's typing makes non-string and
// non-int membership unrepresentable; presence and non-empty checks remain.)
func Validate(d *types.Doctrine) error {
	var bad []string

	for _, c := range []struct {
		name  string
		items []string
	}{
		{"principles", d.Principles},
		{"claims", d.Claims},
		{"rules", d.Rules},
		{"warnings", d.Warnings},
	} {
		if c.items == nil {
			bad = append(bad, c.name)
			continue
		}
		for _, s := range c.items {
			if s == "" {
				bad = append(bad, c.name)
				break
			}
		}
	}

	if d.CrossReferences == nil {
		bad = append(bad, "cross_references")
	}

	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}
