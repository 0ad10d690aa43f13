// Package openalex is a client for the OpenAlex works API, the
// alternative citation data source to ADS.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/SasiMitraB/CitationConstellation/internal/ident"
	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

// BaseURL is the OpenAlex API root.
const BaseURL = "https://api.openalex.org"

// ErrNotFound is returned when OpenAlex has no record for the identifier.
var ErrNotFound = fmt.Errorf("openalex: work not found")

// ErrUnsupportedID is returned for identifier kinds OpenAlex cannot
// look up directly (arXiv IDs, ADS bibcodes).
var ErrUnsupportedID = fmt.Errorf("openalex: identifier type not supported, needs DOI or OpenAlex ID")

// Client is a rate-limited HTTP client for the OpenAlex API. Supplying
// a mailto address opts into the polite pool, which gets faster and
// more reliable service.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMailto sets the polite-pool contact address.
func WithMailto(email string) ClientOption {
	return func(c *Client) {
		c.mailto = email
	}
}

// WithRateLimit overrides the default ten-requests-per-second limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates an OpenAlex client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// work mirrors the slice of an OpenAlex work object we consume.
type work struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	IDs struct {
		OpenAlex string `json:"openalex"`
		DOI      string `json:"doi"`
	} `json:"ids"`
	Locations []struct {
		PDFURL      string `json:"pdf_url"`
		LandingPage string `json:"landing_page_url"`
	} `json:"locations"`
}

type listResponse struct {
	Results []work `json:"results"`
}

// PaperMetadata fetches a work by DOI or OpenAlex ID.
func (c *Client) PaperMetadata(ctx context.Context, id ident.ID) (reference.Paper, error) {
	var path string
	switch id.Kind {
	case ident.KindDOI:
		path = "/works/doi:" + reference.NormalizeDOI(id.Value)
	case ident.KindOpenAlex:
		path = "/works/" + strings.ToUpper(id.Value)
	default:
		return reference.Paper{}, ErrUnsupportedID
	}

	var w work
	if err := c.get(ctx, path, nil, &w); err != nil {
		return reference.Paper{}, err
	}
	return workToPaper(w), nil
}

// SearchTitle returns the best-matching work for a title query. Used
// when a local PDF carries no DOI and the title is all we have.
func (c *Client) SearchTitle(ctx context.Context, title string) (reference.Paper, error) {
	params := url.Values{}
	params.Set("search", title)
	params.Set("per-page", "1")

	var list listResponse
	if err := c.get(ctx, "/works", params, &list); err != nil {
		return reference.Paper{}, err
	}
	if len(list.Results) == 0 {
		return reference.Paper{}, ErrNotFound
	}
	return workToPaper(list.Results[0]), nil
}

// Citations returns up to limit works citing the given OpenAlex work ID.
func (c *Client) Citations(ctx context.Context, openAlexID string, limit int) ([]reference.Paper, error) {
	params := url.Values{}
	params.Set("filter", "cites:"+strings.ToUpper(openAlexID))
	params.Set("per-page", fmt.Sprint(limit))
	params.Set("sort", "publication_date:desc")

	var list listResponse
	if err := c.get(ctx, "/works", params, &list); err != nil {
		return nil, fmt.Errorf("fetching citations: %w", err)
	}

	papers := make([]reference.Paper, 0, len(list.Results))
	for _, w := range list.Results {
		papers = append(papers, workToPaper(w))
	}
	return papers, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openalex: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openalex: decoding response: %w", err)
	}
	return nil
}

// workToPaper converts an OpenAlex work to the domain type. The arXiv
// ID is recovered from arxiv.org location URLs when present.
func workToPaper(w work) reference.Paper {
	p := reference.Paper{
		Title:      w.Title,
		Year:       w.PublicationYear,
		DOI:        reference.NormalizeDOI(w.DOI),
		OpenAlexID: shortOpenAlexID(w.ID),
	}
	if p.Title == "" {
		p.Title = "Unknown Title"
	}
	if p.OpenAlexID == "" {
		p.OpenAlexID = shortOpenAlexID(w.IDs.OpenAlex)
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}
	for _, loc := range w.Locations {
		if id := arxivIDFromURL(loc.PDFURL); id != "" {
			p.ArXivID = id
			break
		}
		if id := arxivIDFromURL(loc.LandingPage); id != "" {
			p.ArXivID = id
			break
		}
	}
	return p
}

// shortOpenAlexID reduces "https://openalex.org/W123" to "W123".
func shortOpenAlexID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return id
}

func arxivIDFromURL(u string) string {
	if u == "" || !strings.Contains(u, "arxiv.org") {
		return ""
	}
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if idx := strings.Index(u, marker); idx >= 0 {
			id := u[idx+len(marker):]
			id = strings.TrimSuffix(id, ".pdf")
			if cut := strings.IndexByte(id, '?'); cut >= 0 {
				id = id[:cut]
			}
			return id
		}
	}
	return ""
}
