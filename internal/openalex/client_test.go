package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SasiMitraB/CitationConstellation/internal/ident"
)

const sampleWork = `{
	"id": "https://openalex.org/W4391876328",
	"doi": "https://doi.org/10.1234/abcd",
	"title": "A Study of Things",
	"publication_year": 2021,
	"authorships": [
		{"author": {"display_name": "John Smith"}},
		{"author": {"display_name": "Jane Doe"}}
	],
	"locations": [
		{"pdf_url": "https://arxiv.org/pdf/2103.02607.pdf", "landing_page_url": ""}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(1000), WithMailto("tester@example.org"))
}

func TestPaperMetadataByDOI(t *testing.T) {
	var gotPath, gotMailto string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMailto = r.URL.Query().Get("mailto")
		fmt.Fprint(w, sampleWork)
	})

	paper, err := client.PaperMetadata(context.Background(), ident.ID{Kind: ident.KindDOI, Value: "https://doi.org/10.1234/abcd"})
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/works/doi:10.1234/abcd" {
		t.Errorf("path = %q", gotPath)
	}
	if gotMailto != "tester@example.org" {
		t.Errorf("mailto = %q", gotMailto)
	}
	if paper.Title != "A Study of Things" || paper.Year != 2021 {
		t.Errorf("paper = %+v", paper)
	}
	if paper.OpenAlexID != "W4391876328" {
		t.Errorf("OpenAlex ID = %q", paper.OpenAlexID)
	}
	if paper.DOI != "10.1234/abcd" {
		t.Errorf("DOI = %q, want normalized form", paper.DOI)
	}
	if paper.ArXivID != "2103.02607" {
		t.Errorf("arXiv ID = %q", paper.ArXivID)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "John Smith" {
		t.Errorf("authors = %v", paper.Authors)
	}
}

func TestPaperMetadataUnsupportedKind(t *testing.T) {
	client := NewClient()
	for _, kind := range []ident.Kind{ident.KindArXiv, ident.KindBibcode} {
		_, err := client.PaperMetadata(context.Background(), ident.ID{Kind: kind, Value: "x"})
		if !errors.Is(err, ErrUnsupportedID) {
			t.Errorf("kind %s: err = %v, want ErrUnsupportedID", kind, err)
		}
	}
}

func TestPaperMetadataNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
	})

	_, err := client.PaperMetadata(context.Background(), ident.ID{Kind: ident.KindOpenAlex, Value: "W1"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchTitle(t *testing.T) {
	var gotSearch, gotPerPage string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("search")
		gotPerPage = r.URL.Query().Get("per-page")
		fmt.Fprintf(w, `{"results": [%s]}`, sampleWork)
	})

	paper, err := client.SearchTitle(context.Background(), "A Study of Things")
	if err != nil {
		t.Fatal(err)
	}

	if gotSearch != "A Study of Things" {
		t.Errorf("search = %q", gotSearch)
	}
	if gotPerPage != "1" {
		t.Errorf("per-page = %q", gotPerPage)
	}
	if paper.OpenAlexID != "W4391876328" {
		t.Errorf("paper = %+v", paper)
	}
}

func TestSearchTitleNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	})

	_, err := client.SearchTitle(context.Background(), "Nothing Matches This")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCitations(t *testing.T) {
	var gotFilter, gotPerPage string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		gotPerPage = r.URL.Query().Get("per-page")
		fmt.Fprintf(w, `{"results": [%s, %s]}`, sampleWork, sampleWork)
	})

	papers, err := client.Citations(context.Background(), "w4391876328", 25)
	if err != nil {
		t.Fatal(err)
	}

	if gotFilter != "cites:W4391876328" {
		t.Errorf("filter = %q", gotFilter)
	}
	if gotPerPage != "25" {
		t.Errorf("per-page = %q", gotPerPage)
	}
	if len(papers) != 2 {
		t.Errorf("got %d papers, want 2", len(papers))
	}
}
