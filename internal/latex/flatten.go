// Package latex implements the citation-context extraction pipeline:
// resolving file inclusions, parsing LaTeX source into a node tree, and
// walking the tree to locate citations of specific bibliography keys.
package latex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxIncludeDepth caps recursive \input/\include expansion. There is no
// cycle detection; a mutually recursive pair expands up to this depth
// before truncating.
const MaxIncludeDepth = 10

// includeRe matches \input{filename} or \include{filename}.
var includeRe = regexp.MustCompile(`\\(?:input|include)\{([^}]+)\}`)

// Flatten replaces every \input{} and \include{} directive in text with
// the content of the referenced file, recursively up to MaxIncludeDepth.
// Missing files and depth overflows become inline marker comments;
// Flatten never fails.
func Flatten(baseDir, text string) string {
	return flatten(baseDir, text, 0)
}

func flatten(baseDir, text string, depth int) string {
	if depth > MaxIncludeDepth {
		return text + "\n% Max recursion depth reached\n"
	}

	return includeRe.ReplaceAllStringFunc(text, func(directive string) string {
		name := strings.TrimSpace(includeRe.FindStringSubmatch(directive)[1])
		if !strings.HasSuffix(name, ".tex") {
			name += ".tex"
		}

		content, err := readIncluded(baseDir, name)
		if errors.Is(err, fs.ErrNotExist) {
			return "% File not found: " + name
		}
		if err != nil {
			return fmt.Sprintf("%% Error including %s: %v", name, err)
		}

		return flatten(baseDir, content, depth+1)
	})
}

// readIncluded reads an included file, confined to baseDir. Invalid
// UTF-8 sequences are replaced rather than failing the read.
func readIncluded(baseDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fs.ErrNotExist
	}
	path := filepath.Join(baseDir, name)
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fs.ErrNotExist
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
