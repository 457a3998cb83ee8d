package assemble

import (
	"errors"
	"reflect"
	"testing"

	"github.com/creedhall/doctrine/internal/types"
)

func TestAssemble(t *testing.T) {
	ch := types.Chapter{
		BookID:      "book-a",
		Index:       3,
		Title:       "Chapter 3",
		ContentHash: "deadbeef",
	}
	parts := []*types.PartialExtraction{
		{
			Principles:      []string{"P1", "P2"},
			Claims:          []string{"C1"},
			Rules:           []string{},
			Warnings:        []string{"W1"},
			CrossReferences: []int{5, 2},
		},
		{
			Principles:      []string{"P2", "P3"},
			Claims:          []string{"C1", "C2"},
			Rules:           []string{"R1"},
			Warnings:        []string{},
			CrossReferences: []int{2, 1},
		},
	}

	d := Assemble(ch, parts)

	t.Run("identity fields from chapter", func(t *testing.T) {
		if d.BookID != "book-a" || d.ChapterIndex != 3 || d.ChapterTitle != "Chapter 3" {
			t.Errorf("identity fields = %q/%d/%q", d.BookID, d.ChapterIndex, d.ChapterTitle)
		}
		if d.SourceHash != "deadbeef" {
			t.Errorf("SourceHash = %q, want chapter ContentHash", d.SourceHash)
		}
	})

	t.Run("stable dedup preserves first-seen order", func(t *testing.T) {
		if !reflect.DeepEqual(d.Principles, []string{"P1", "P2", "P3"}) {
			t.Errorf("principles = %v", d.Principles)
		}
		if !reflect.DeepEqual(d.Claims, []string{"C1", "C2"}) {
			t.Errorf("claims = %v", d.Claims)
		}
		if !reflect.DeepEqual(d.Warnings, []string{"W1"}) {
			t.Errorf("warnings = %v", d.Warnings)
		}
	})

	t.Run("cross references sorted deduped union", func(t *testing.T) {
		if !reflect.DeepEqual(d.CrossReferences, []int{1, 2, 5}) {
			t.Errorf("cross_references = %v", d.CrossReferences)
		}
	})
}

func TestAssemble_EmptyPartsYieldEmptyCollections(t *testing.T) {
	d := Assemble(types.Chapter{BookID: "b", Index: 1}, nil)
	if d.Principles == nil || d.Claims == nil || d.Rules == nil || d.Warnings == nil || d.CrossReferences == nil {
		t.Fatalf("collections must be empty, not nil: %+v", d)
	}
	if err := Validate(d); err != nil {
		t.Fatalf("empty doctrine should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *types.Doctrine {
		return &types.Doctrine{
			BookID:          "b",
			ChapterIndex:    1,
			Principles:      []string{"P"},
			Claims:          []string{},
			Rules:           []string{"R"},
			Warnings:        []string{},
			CrossReferences: []int{2},
		}
	}

	t.Run("accepts valid record", func(t *testing.T) {
		if err := Validate(valid()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*types.Doctrine)
		fields []string
	}{
		{"missing principles", func(d *types.Doctrine) { d.Principles = nil }, []string{"principles"}},
		{"missing claims", func(d *types.Doctrine) { d.Claims = nil }, []string{"claims"}},
		{"missing rules", func(d *types.Doctrine) { d.Rules = nil }, []string{"rules"}},
		{"missing warnings", func(d *types.Doctrine) { d.Warnings = nil }, []string{"warnings"}},
		{"missing cross_references", func(d *types.Doctrine) { d.CrossReferences = nil }, []string{"cross_references"}},
		{"empty string in rules", func(d *types.Doctrine) { d.Rules = []string{"R", ""} }, []string{"rules"}},
		{
			"multiple violations all named",
			func(d *types.Doctrine) {
				d.Principles = nil
				d.Warnings = []string{""}
			},
			[]string{"principles", "warnings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := Validate(d)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !reflect.DeepEqual(verr.Fields, tt.fields) {
				t.Errorf("Fields = %v, want %v", verr.Fields, tt.fields)
			}
		})
	}
}
