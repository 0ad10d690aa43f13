package bibliography

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

// ResolveKey scans the bibliography files in sourceDir for the record
// matching the target paper and returns the citation key the document
// uses for it. Structured .bib files are searched before rendered .bbl
// files; within each strategy the first match in listing order wins.
//
// ok is false when no record matches. That is a normal outcome for a
// paper, not an error: unreadable files are skipped and never abort the
// search.
func ResolveKey(sourceDir string, target reference.Target) (key string, ok bool) {
	dirEntries, err := os.ReadDir(sourceDir)
	if err != nil {
		return "", false
	}

	m := newMatcher(target)

	// Strategy 1: structured .bib files.
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".bib") {
			continue
		}
		entries, err := ParseBibFile(filepath.Join(sourceDir, de.Name()))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if m.matches(entry.searchText(), entry.Field("doi"), entry.Field("title")) {
				return entry.Key, true
			}
		}
	}

	// Strategy 2: rendered .bbl files.
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".bbl") {
			continue
		}
		items, err := ParseBblFile(filepath.Join(sourceDir, de.Name()))
		if err != nil {
			continue
		}
		for _, item := range items {
			if m.matches(item.Text, "", "") {
				return item.Key, true
			}
		}
	}

	return "", false
}
