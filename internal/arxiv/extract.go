package arxiv

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractSource unpacks a downloaded e-print archive into destDir and
// returns destDir. Most e-prints are gzipped tarballs, but single-file
// submissions arrive as a bare gzipped TeX file; those are written out
// as main.tex. Entries that would escape destDir are skipped.
func ExtractSource(tarPath, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating extract dir: %w", err)
	}

	f, err := os.Open(tarPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%s is not a gzip archive: %w", filepath.Base(tarPath), err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	extracted := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			// The header is still valid; the securePath guard below
			// rejects it.
			err = nil
		}
		if err != nil {
			if extracted == 0 {
				// Not a tarball: a single gzipped file.
				return destDir, extractSingleFile(tarPath, destDir)
			}
			return "", fmt.Errorf("reading archive %s: %w", filepath.Base(tarPath), err)
		}

		target, ok := securePath(destDir, hdr.Name)
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", err
			}
			out, err := os.Create(target)
			if err != nil {
				return "", err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return "", err
			}
			extracted++
		}
	}

	return destDir, nil
}

// extractSingleFile handles the gzipped-single-file submission format.
func extractSingleFile(gzPath, destDir string) error {
	f, err := os.Open(gzPath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	out, err := os.Create(filepath.Join(destDir, "main.tex"))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, gz)
	return err
}

// securePath joins name under destDir and rejects absolute names and
// upward traversal.
func securePath(destDir, name string) (string, bool) {
	if filepath.IsAbs(name) {
		return "", false
	}
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}
