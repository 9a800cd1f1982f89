package s2

import (
	"context"
	"encoding/json"
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
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the default request rate (requests per second).
	RateLimit = 5.0

	// PaperFields are the fields requested for search and reference lookups.
	PaperFields = "title,authors,year,venue,abstract,url,externalIds,citationCount"

	// DefaultSearchLimit is used when a non-positive limit is passed.
	DefaultSearchLimit = 10

	// userAgent identifies the client to the API.
	userAgent = "autocite/0.1"

	cacheNamespace = "s2"
)

// Client is a rate-limited HTTP client for the Semantic Scholar API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	cache      *cache.Cache
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCache stores successful responses in a response cache.
func WithCache(rc *cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = rc
	}
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
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a new Semantic Scholar API client.
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

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// get fetches path with params and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if body, ok, err := c.cache.Get(cacheNamespace, reqURL); err != nil {
		c.logger.Warn("s2 cache read failed", zap.Error(err))
	} else if ok {
		return decode(body, v)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	c.logger.Debug("s2 request", zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		if IsAuthError(err) {
			c.logger.Error("s2 request rejected", zap.Int("status", resp.StatusCode))
		}
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	if err := decode(body, v); err != nil {
		return err
	}

	if err := c.cache.Set(cacheNamespace, reqURL, body); err != nil {
		c.logger.Warn("s2 cache write failed", zap.Error(err))
	}
	return nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// SearchPapers searches for papers by keyword relevance.
func (c *Client) SearchPapers(ctx context.Context, query string, limit int) ([]reference.PaperRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {PaperFields},
	}

	var resp searchResponse
	if err := c.get(ctx, "/paper/search", params, &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return ToRecords(resp.Data), nil
}

// LookupByTitle returns the search hit whose normalized title equals the
// query, falling back to the first titled hit.
func (c *Client) LookupByTitle(ctx context.Context, title string) (*reference.PaperRecord, error) {
	hits, err := c.SearchPapers(ctx, title, 3)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNotFound
	}

	norm := dedupe.NormalizeTitle(title)
	for i := range hits {
		if dedupe.NormalizeTitle(hits[i].Title) == norm {
			return &hits[i], nil
		}
	}
	return &hits[0], nil
}

// GetPaper fetches a single paper by identifier (see ParsePaperID).
func (c *Client) GetPaper(ctx context.Context, id string) (*reference.PaperRecord, error) {
	pid := ParsePaperID(id)
	var p Paper
	if err := c.get(ctx, "/paper/"+pid.String(), url.Values{"fields": {PaperFields}}, &p); err != nil {
		return nil, fmt.Errorf("fetching paper %s: %w", pid, err)
	}
	if p.PaperID == "" {
		return nil, ErrNotFound
	}
	rec := ToRecord(p)
	return &rec, nil
}

// References returns the works cited by the paper with the given identifier.
func (c *Client) References(ctx context.Context, id string, limit int) ([]reference.PaperRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pid := ParsePaperID(id)
	params := url.Values{
		"fields": {PaperFields},
		"limit":  {strconv.Itoa(limit)},
	}

	var resp referencesResponse
	if err := c.get(ctx, "/paper/"+pid.String()+"/references", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching references of %s: %w", pid, err)
	}

	papers := make([]Paper, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.CitedPaper != nil {
			papers = append(papers, *d.CitedPaper)
		}
	}
	return ToRecords(papers), nil
}

// RelatedFromSeed expands a seed paper, identified by DOI or title, into the
// works it cites. A seed that cannot be resolved yields no records.
func (c *Client) RelatedFromSeed(ctx context.Context, doi, title string, limit int) ([]reference.PaperRecord, error) {
	var id string
	if doi != "" {
		if p, err := c.GetPaper(ctx, "DOI:"+NormalizeDOI(doi)); err == nil {
			id = p.PaperID
		} else if !IsNotFound(err) {
			return nil, err
		}
	}
	if id == "" && title != "" {
		p, err := c.LookupByTitle(ctx, title)
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
		if p != nil {
			id = p.PaperID
		}
	}
	if id == "" {
		return nil, nil
	}
	return c.References(ctx, id, limit)
}
