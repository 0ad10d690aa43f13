package arxiv

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// makeTarGz builds a gzipped tarball from name->content pairs.
func makeTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDownloadSource(t *testing.T) {
	archive := makeTarGz(t, map[string]string{"ms.tex": "\\documentclass{article}"})
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/2103.02607" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	d := NewDownloader(srv.URL + "/")

	path, err := d.DownloadSource(context.Background(), "2103.02607", dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "2103.02607.tar.gz" {
		t.Errorf("path = %q", path)
	}

	// Second call reuses the cached file.
	if _, err := d.DownloadSource(context.Background(), "2103.02607", dir); err != nil {
		t.Fatal(err)
	}
	if requests != 1 {
		t.Errorf("got %d requests, want 1 (cache hit expected)", requests)
	}
}

func TestDownloadSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	d := NewDownloader(srv.URL + "/")
	if _, err := d.DownloadSource(context.Background(), "0000.00000", t.TempDir()); err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestExtractSource(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "src.tar.gz")
	archive := makeTarGz(t, map[string]string{
		"main.tex":         "\\documentclass{article}",
		"sections/sec.tex": "\\section{Intro}",
	})
	if err := os.WriteFile(tarPath, archive, 0644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	got, err := ExtractSource(tarPath, dest)
	if err != nil {
		t.Fatal(err)
	}
	if got != dest {
		t.Errorf("ExtractSource() = %q, want %q", got, dest)
	}

	for _, name := range []string{"main.tex", filepath.Join("sections", "sec.tex")} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("missing extracted file %s: %v", name, err)
		}
	}
}

func TestExtractSourceSkipsTraversal(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "evil.tar.gz")
	archive := makeTarGz(t, map[string]string{"../escape.tex": "nope"})
	if err := os.WriteFile(tarPath, archive, 0644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	if _, err := ExtractSource(tarPath, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.tex")); !os.IsNotExist(err) {
		t.Error("traversal entry escaped the destination directory")
	}
}

func TestExtractSourceSingleGzippedFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	fmt.Fprint(gz, "\\documentclass{article}\\begin{document}hi\\end{document}")
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	gzPath := filepath.Join(dir, "single.tar.gz")
	if err := os.WriteFile(gzPath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	if _, err := ExtractSource(gzPath, dest); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "main.tex"))
	if err != nil {
		t.Fatalf("single-file submission should become main.tex: %v", err)
	}
	if !bytes.Contains(data, []byte("\\documentclass")) {
		t.Errorf("unexpected content: %s", data)
	}
}

func TestExtractSourceNotGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.tar.gz")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractSource(path, filepath.Join(dir, "out")); err == nil {
		t.Error("expected error for non-gzip input")
	}
}

func TestFindMainTex(t *testing.T) {
	t.Run("conventional name wins", func(t *testing.T) {
		dir := t.TempDir()
		for name, content := range map[string]string{
			"aaa.tex":  "\\documentclass{article}",
			"main.tex": "body",
		} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
		}
		got, err := FindMainTex(dir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(got) != "main.tex" {
			t.Errorf("FindMainTex() = %q", got)
		}
	})

	t.Run("documentclass scan", func(t *testing.T) {
		dir := t.TempDir()
		for name, content := range map[string]string{
			"aaa.tex":   "just a fragment",
			"paper.tex": "\\documentclass[12pt]{aastex}",
		} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
		}
		got, err := FindMainTex(dir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(got) != "paper.tex" {
			t.Errorf("FindMainTex() = %q", got)
		}
	})

	t.Run("no tex files", func(t *testing.T) {
		if _, err := FindMainTex(t.TempDir()); err == nil {
			t.Error("expected error for empty directory")
		}
	})
}
