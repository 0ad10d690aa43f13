package main

import (
	"context"
	"testing"

	"github.com/SasiMitraB/CitationConstellation/internal/ident"
	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

func TestTracePaperWithoutArxivID(t *testing.T) {
	paper := reference.Paper{Title: "Journal-only paper", Year: 2020, DOI: "10.1234/x"}
	res := tracePaper(context.Background(), paper, reference.Target{}, t.TempDir())

	if res.Status != statusNoSource {
		t.Errorf("Status = %q, want %q", res.Status, statusNoSource)
	}
	if len(res.Contexts) != 0 {
		t.Errorf("Contexts should be empty, got %v", res.Contexts)
	}
}

func TestPaperID(t *testing.T) {
	tests := []struct {
		name  string
		paper reference.Paper
		want  ident.ID
		ok    bool
	}{
		{"doi wins", reference.Paper{DOI: "10.1/x", Bibcode: "B", OpenAlexID: "W1"}, ident.ID{Kind: ident.KindDOI, Value: "10.1/x"}, true},
		{"openalex next", reference.Paper{OpenAlexID: "W1", Bibcode: "B"}, ident.ID{Kind: ident.KindOpenAlex, Value: "W1"}, true},
		{"bibcode", reference.Paper{Bibcode: "2021MNRAS.505.5686S"}, ident.ID{Kind: ident.KindBibcode, Value: "2021MNRAS.505.5686S"}, true},
		{"arxiv last", reference.Paper{ArXivID: "2103.02607"}, ident.ID{Kind: ident.KindArXiv, Value: "2103.02607"}, true},
		{"nothing", reference.Paper{Title: "Untraceable"}, ident.ID{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := paperID(tt.paper)
			if ok != tt.ok || got != tt.want {
				t.Errorf("paperID() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"secrettoken1234", "****1234"},
	}
	for _, tt := range tests {
		if got := maskToken(tt.in); got != tt.want {
			t.Errorf("maskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
