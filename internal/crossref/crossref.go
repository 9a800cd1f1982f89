// Package crossref provides a client for the Crossref REST API: DOI to BibTeX
// content negotiation and title search.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/autocite/internal/cache"
	"github.com/matsen/autocite/internal/dedupe"
	"github.com/matsen/autocite/internal/reference"
)

const (
	// BaseURL is the Crossref API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the default request rate (requests per second).
	RateLimit = 5.0

	// ResolveThreshold is the minimum title similarity for ResolveDOI.
	ResolveThreshold = 97.0

	// SourceName tags records produced by this package.
	SourceName = "crossref"

	userAgent = "autocite/0.1"
)

var (
	// ErrNotFound indicates the DOI is unknown to Crossref.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// StatusError is a non-success HTTP status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Crossref request %s failed with status %d", e.URL, e.StatusCode)
}

// Work is the subset of a Crossref work record used here.
type Work struct {
	DOI            string   `json:"DOI"`
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	URL            string   `json:"URL"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		ORCID  string `json:"ORCID"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	IsReferencedByCount int `json:"is-referenced-by-count"`
}

// FirstTitle returns the primary title or "".
func (w Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// Year returns the issued year, 0 if absent.
func (w Work) Year() int {
	if len(w.Issued.DateParts) == 0 || len(w.Issued.DateParts[0]) == 0 {
		return 0
	}
	return w.Issued.DateParts[0][0]
}

// ToRecord converts the work to a PaperRecord.
func (w Work) ToRecord() reference.PaperRecord {
	rec := reference.PaperRecord{
		DOI:           w.DOI,
		URL:           w.URL,
		Title:         strings.TrimSpace(w.FirstTitle()),
		Year:          w.Year(),
		CitationCount: w.IsReferencedByCount,
		Source:        SourceName,
	}
	if len(w.ContainerTitle) > 0 {
		rec.Venue = w.ContainerTitle[0]
	}
	for _, a := range w.Author {
		rec.Authors = append(rec.Authors, reference.Author{First: a.Given, Last: a.Family, ORCID: a.ORCID})
	}
	return rec
}

type workResponse struct {
	Message Work `json:"message"`
}

type searchResponse struct {
	Message struct {
		Items []Work `json:"items"`
	} `json:"message"`
}

// Client is a rate-limited, optionally cached Crossref client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
	cache      *cache.Cache
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithMailto identifies the caller for Crossref's polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) { c.mailto = addr }
}

// WithCache stores successful responses in a response cache.
func WithCache(rc *cache.Cache) ClientOption {
	return func(c *Client) { c.cache = rc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRateLimit overrides the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a Crossref client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetch returns the body of a GET request, consulting the cache first.
func (c *Client) fetch(ctx context.Context, namespace, path string, params url.Values, accept string) ([]byte, error) {
	if c.mailto != "" {
		if params == nil {
			params = url.Values{}
		}
		params.Set("mailto", c.mailto)
	}
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if body, ok, err := c.cache.Get(namespace, reqURL); err != nil {
		c.logger.Warn("crossref cache read failed", zap.Error(err))
	} else if ok {
		return body, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("crossref request", zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 400:
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := c.cache.Set(namespace, reqURL, body); err != nil {
		c.logger.Warn("crossref cache write failed", zap.Error(err))
	}
	return body, nil
}

// BibTeX returns the BibTeX record for a DOI via content negotiation. An
// unknown DOI yields "" and no error.
func (c *Client) BibTeX(ctx context.Context, doi string) (string, error) {
	body, err := c.fetch(ctx, "crossref-bibtex", "/works/"+doi+"/transform/application/x-bibtex", nil, "application/x-bibtex")
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// Work fetches the metadata record for a DOI.
func (c *Client) Work(ctx context.Context, doi string) (*Work, error) {
	body, err := c.fetch(ctx, "crossref", "/works/"+doi, nil, "application/json")
	if err != nil {
		return nil, err
	}
	var resp workResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp.Message, nil
}

// Record fetches the metadata of a DOI as a PaperRecord. An unknown DOI
// yields nil and no error.
func (c *Client) Record(ctx context.Context, doi string) (*reference.PaperRecord, error) {
	work, err := c.Work(ctx, doi)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := work.ToRecord()
	return &rec, nil
}

// SearchTitle runs a bibliographic title query and returns up to rows works.
func (c *Client) SearchTitle(ctx context.Context, title string, rows int) ([]Work, error) {
	if rows <= 0 {
		rows = 3
	}
	params := url.Values{
		"query.title": {title},
		"rows":        {strconv.Itoa(rows)},
	}
	body, err := c.fetch(ctx, "crossref", "/works", params, "application/json")
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return resp.Message.Items, nil
}

// ResolveDOI finds the DOI of a titled work. Only the top hit is considered;
// it is accepted when its title similarity is at least ResolveThreshold and,
// when both years are known, the years differ by at most one. Returns "" when
// no hit qualifies.
func (c *Client) ResolveDOI(ctx context.Context, title string, year int) (string, error) {
	items, err := c.SearchTitle(ctx, title, 3)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	return acceptMatch(items[0], title, year), nil
}

func acceptMatch(best Work, title string, year int) string {
	if dedupe.TitleSimilarity(title, best.FirstTitle()) < ResolveThreshold {
		return ""
	}
	if y := best.Year(); year > 0 && y > 0 && abs(year-y) > 1 {
		return ""
	}
	return best.DOI
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
