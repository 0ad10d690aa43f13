package arxiv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// mainTexNames are conventional main-file names, tried before scanning
// for \documentclass.
var mainTexNames = []string{"main.tex", "ms.tex", "article.tex"}

// FindMainTex locates the entry-point TeX file in an extracted source
// directory: a conventional name first, then the first file containing
// \documentclass, then the first .tex file at all.
func FindMainTex(sourceDir string) (string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return "", err
	}

	var texFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tex") {
			texFiles = append(texFiles, entry.Name())
		}
	}
	if len(texFiles) == 0 {
		return "", fmt.Errorf("no .tex files found in %s", sourceDir)
	}

	for _, name := range mainTexNames {
		for _, have := range texFiles {
			if have == name {
				return filepath.Join(sourceDir, name), nil
			}
		}
	}

	for _, name := range texFiles {
		path := filepath.Join(sourceDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), `\documentclass`) {
			return path, nil
		}
	}

	return filepath.Join(sourceDir, texFiles[0]), nil
}
