// Package ads is a minimal client for the NASA ADS search API, used to
// fetch paper metadata and the list of citing papers.
package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/SasiMitraB/CitationConstellation/internal/ident"
	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

const (
	// BaseURL is the ADS search API endpoint.
	BaseURL = "https://api.adsabs.harvard.edu/v1/search/query"

	// paperFields are the metadata fields requested for every query.
	paperFields = "title,author,year,doi,bibcode,identifier"

	// DefaultCitationsLimit caps how many citing papers one trace pulls.
	DefaultCitationsLimit = 25

	// defaultMaxRetries is how many times a query is attempted before
	// giving up; 503 responses back off between attempts.
	defaultMaxRetries = 3
)

// ErrNotFound is returned when ADS has no record for the identifier.
var ErrNotFound = fmt.Errorf("ads: paper not found")

// Client is a rate-limited HTTP client for the ADS search API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	maxRetries int
	backoff    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the ADS API token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRateLimit overrides the default one-request-per-second limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithMaxRetries overrides the retry budget per query.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates an ADS client. The API token is read from
// ADS_API_TOKEN (or the legacy ADS_TOKEN) unless provided via option.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		baseURL:    BaseURL,
		maxRetries: defaultMaxRetries,
		backoff:    2 * time.Second,
	}

	if token := os.Getenv("ADS_API_TOKEN"); token != "" {
		c.token = strings.TrimSpace(token)
	} else if token := os.Getenv("ADS_TOKEN"); token != "" {
		c.token = strings.TrimSpace(token)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasToken reports whether the client has an API token configured.
// Queries without one are likely to be rejected by ADS.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// searchResponse mirrors the relevant slice of the ADS JSON response.
type searchResponse struct {
	Response struct {
		Docs []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	Title      []string `json:"title"`
	Author     []string `json:"author"`
	Year       string   `json:"year"`
	DOI        []string `json:"doi"`
	Bibcode    string   `json:"bibcode"`
	Identifier []string `json:"identifier"`
}

// PaperMetadata fetches full metadata for a classified identifier.
func (c *Client) PaperMetadata(ctx context.Context, id ident.ID) (reference.Paper, error) {
	var query string
	switch id.Kind {
	case ident.KindArXiv:
		query = "identifier:arxiv:" + id.Value
	case ident.KindDOI:
		query = "doi:" + id.Value
	case ident.KindBibcode:
		query = "bibcode:" + id.Value
	default:
		return reference.Paper{}, fmt.Errorf("ads: unsupported identifier type %q", id.Kind)
	}

	docs, err := c.search(ctx, query, 1, "")
	if err != nil {
		return reference.Paper{}, err
	}
	if len(docs) == 0 {
		return reference.Paper{}, ErrNotFound
	}

	paper := docToPaper(docs[0])
	// ADS sometimes omits the arXiv identifier we started from.
	if paper.ArXivID == "" && id.Kind == ident.KindArXiv {
		paper.ArXivID = id.Value
	}
	return paper, nil
}

// SearchTitle returns the best-matching paper for a title query. Used
// when a local PDF carries no DOI and the title is all we have.
func (c *Client) SearchTitle(ctx context.Context, title string) (reference.Paper, error) {
	docs, err := c.search(ctx, fmt.Sprintf("title:%q", title), 1, "score desc")
	if err != nil {
		return reference.Paper{}, err
	}
	if len(docs) == 0 {
		return reference.Paper{}, ErrNotFound
	}
	return docToPaper(docs[0]), nil
}

// Citations returns up to limit papers citing the given bibcode, newest
// first.
func (c *Client) Citations(ctx context.Context, bibcode string, limit int) ([]reference.Paper, error) {
	if limit <= 0 {
		limit = DefaultCitationsLimit
	}

	docs, err := c.search(ctx, fmt.Sprintf("citations(bibcode:%s)", bibcode), limit, "date desc")
	if err != nil {
		return nil, fmt.Errorf("fetching citations: %w", err)
	}

	papers := make([]reference.Paper, 0, len(docs))
	for _, doc := range docs {
		papers = append(papers, docToPaper(doc))
	}
	return papers, nil
}

// search runs one rate-limited query with retries. A 503 backs off
// before the next attempt; other HTTP errors fail immediately.
func (c *Client) search(ctx context.Context, query string, rows int, sort string) ([]searchDoc, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		docs, err, retriable := c.doSearch(ctx, query, rows, sort)
		if err == nil {
			return docs, nil
		}
		lastErr = err
		if !retriable {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.backoff):
		}
	}

	return nil, fmt.Errorf("ads query failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) doSearch(ctx context.Context, query string, rows int, sort string) (docs []searchDoc, err error, retriable bool) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("fl", paperFields)
	params.Set("rows", strconv.Itoa(rows))
	if sort != "" {
		params.Set("sort", sort)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err, false
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err, true
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("ads: service temporarily unavailable"), true
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ads: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), false
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ads: decoding response: %w", err), false
	}
	return parsed.Response.Docs, nil, false
}

// docToPaper converts an ADS document to the domain type, pulling the
// arXiv ID out of the identifier list when present.
func docToPaper(doc searchDoc) reference.Paper {
	p := reference.Paper{
		Title:   "Unknown Title",
		Authors: doc.Author,
		Bibcode: doc.Bibcode,
	}
	if len(doc.Title) > 0 {
		p.Title = doc.Title[0]
	}
	if len(doc.DOI) > 0 {
		p.DOI = doc.DOI[0]
	}
	if year, err := strconv.Atoi(doc.Year); err == nil {
		p.Year = year
	}
	for _, identifier := range doc.Identifier {
		if strings.HasPrefix(identifier, "arXiv:") {
			p.ArXivID = strings.TrimPrefix(identifier, "arXiv:")
			break
		}
	}
	return p
}
