// Package reference defines the core domain types for academic papers.
package reference

import "strings"

// Paper represents the metadata of an academic paper as returned by a
// citation data source (ADS or OpenAlex).
type Paper struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"` // "Last, First" where the source provides it
	Year       int      `json:"year"`
	DOI        string   `json:"doi,omitempty"`
	ArXivID    string   `json:"arxiv_id,omitempty"`
	Bibcode    string   `json:"bibcode,omitempty"` // ADS bibcode
	OpenAlexID string   `json:"openalex_id,omitempty"`
}

// URL returns the best available link for the paper, preferring arXiv
// over DOI. Empty string if the paper has neither.
func (p Paper) URL() string {
	if p.ArXivID != "" {
		return "https://arxiv.org/abs/" + p.ArXivID
	}
	if p.DOI != "" {
		return "https://doi.org/" + p.DOI
	}
	return ""
}

// Target describes the paper we are looking for inside another paper's
// bibliography. Any subset of fields may be present; matching degrades
// gracefully when fields are missing.
type Target struct {
	DOI     string
	Title   string
	Authors []string
	Year    int
}

// TargetFor builds a Target from fetched paper metadata.
func TargetFor(p Paper) Target {
	return Target{
		DOI:     p.DOI,
		Title:   p.Title,
		Authors: p.Authors,
		Year:    p.Year,
	}
}

// NormalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
