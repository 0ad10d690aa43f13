// Package arxiv downloads and unpacks arXiv e-print source archives
// and locates the main TeX file inside them.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// SourceURLBase is the arXiv e-print endpoint; appending a paper ID
// yields its source tarball.
const SourceURLBase = "https://arxiv.org/e-print/"

// Downloader fetches e-print tarballs into a local directory.
type Downloader struct {
	httpClient *http.Client
	baseURL    string
}

// NewDownloader creates a Downloader. A non-empty baseURL overrides the
// arXiv endpoint (for testing).
func NewDownloader(baseURL string) *Downloader {
	if baseURL == "" {
		baseURL = SourceURLBase
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
	}
}

// DownloadSource fetches the source tarball for an arXiv ID into
// outputDir and returns the path to the file. An already-downloaded
// tarball is reused without a network call.
func (d *Downloader) DownloadSource(ctx context.Context, arxivID, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(outputDir, arxivID+".tar.gz")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+arxivID, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading source for %s: %w", arxivID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading source for %s: HTTP %d", arxivID, resp.StatusCode)
	}

	// Write through a temp file so an interrupted download never leaves
	// a truncated tarball to be reused on the next run.
	tmp, err := os.CreateTemp(outputDir, arxivID+".*.part")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing source for %s: %w", arxivID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
