// Package source loads pre-paginated plain text produced by the external
// document-text-extraction collaborator. One file per page, named
// page_0001.txt, page_0002.txt, and so on. This core never parses binary
// document formats.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/creedhall/doctrine/internal/types"
)

var pageFileRe = regexp.MustCompile(`^page_(\d+)\.txt$`)

// LoadPages reads every page file under dir and returns the pages ordered by
// page number. Files not matching the page naming convention are ignored.
func LoadPages(dir string) ([]types.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages directory: %w", err)
	}

	var pages []types.Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil || num < 1 {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", num, err)
		}
		pages = append(pages, types.Page{Number: num, Text: string(data)})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no page files found in %s", dir)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}
