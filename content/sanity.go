package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/folio/imageurl"
)

// QueryError is returned when the CMS rejects a query.
type QueryError struct {
	Status      int
	Type        string
	Description string
}

func (e *QueryError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("content: query failed (%d %s): %s", e.Status, e.Type, e.Description)
	}
	return fmt.Sprintf("content: query failed (%d): %s", e.Status, e.Description)
}

// SanityClient runs GROQ queries against the Sanity HTTP query API.
type SanityClient struct {
	projectID  string
	dataset    string
	apiVersion string
	token      string
	useCDN     bool
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// SanityOption configures a SanityClient.
type SanityOption func(*SanityClient)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) SanityOption {
	return func(c *SanityClient) { c.token = token }
}

// WithCDN routes queries through the API CDN host.
func WithCDN(use bool) SanityOption {
	return func(c *SanityClient) { c.useCDN = use }
}

// WithBaseURL overrides the API host, e.g. for a proxy or tests.
func WithBaseURL(u string) SanityOption {
	return func(c *SanityClient) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets the HTTP client used for queries.
func WithHTTPClient(hc *http.Client) SanityOption {
	return func(c *SanityClient) { c.httpClient = hc }
}

// WithLogger sets the logger for decode warnings.
func WithLogger(l *zap.Logger) SanityOption {
	return func(c *SanityClient) { c.logger = l }
}

// NewSanityClient returns a client for one project dataset.
// apiVersion is a date such as "2024-01-01".
func NewSanityClient(projectID, dataset, apiVersion string, opts ...SanityOption) *SanityClient {
	c := &SanityClient{
		projectID:  projectID,
		dataset:    dataset,
		apiVersion: strings.TrimPrefix(apiVersion, "v"),
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SanityClient) endpoint() string {
	base := c.baseURL
	if base == "" {
		host := "api.sanity.io"
		if c.useCDN && c.token == "" {
			host = "apicdn.sanity.io"
		}
		base = "https://" + c.projectID + "." + host
	}
	return fmt.Sprintf("%s/v%s/data/query/%s", base, c.apiVersion, url.PathEscape(c.dataset))
}

// Query runs a GROQ query and decodes its result into out.
// Parameters are JSON-encoded and passed as $name query arguments.
func (c *SanityClient) Query(ctx context.Context, query string, params map[string]any, out any) error {
	q := url.Values{}
	q.Set("query", query)
	q.Set("perspective", "published")
	for name, v := range params {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("content: encode param %s: %w", name, err)
		}
		q.Set("$"+name, string(b))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeQueryError(resp)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("content: decode response: %w", err)
	}
	if len(envelope.Result) == 0 {
		envelope.Result = json.RawMessage("null")
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("content: decode result: %w", err)
	}
	return nil
}

func decodeQueryError(resp *http.Response) error {
	qe := &QueryError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		qe.Type = payload.Error.Type
		qe.Description = payload.Error.Description
		if qe.Description == "" {
			qe.Description = payload.Message
		}
	}
	if qe.Description == "" {
		qe.Description = http.StatusText(resp.StatusCode)
	}
	return qe
}

// ListPosts runs ListQuery.
func (c *SanityClient) ListPosts(ctx context.Context) ([]PostSummary, error) {
	var docs []sanityPost
	if err := c.Query(ctx, ListQuery, nil, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	posts := make([]PostSummary, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.summary(c.logger))
	}
	return posts, nil
}

// GetPost runs PostQuery for slug.
func (c *SanityClient) GetPost(ctx context.Context, slug string) (Post, error) {
	var doc *sanityPost
	if err := c.Query(ctx, PostQuery, map[string]any{"slug": slug}, &doc); err != nil {
		return Post{}, err
	}
	if doc == nil {
		return Post{}, ErrNotFound
	}
	p := Post{PostSummary: doc.summary(c.logger)}
	if doc.Body != nil {
		p.Body = *doc.Body
	}
	return p, nil
}

// sanityPost is the wire shape of a blog document.
type sanityPost struct {
	Title *string `json:"title"`
	Slug  *struct {
		Current string `json:"current"`
	} `json:"slug"`
	Excerpt       *string         `json:"excerpt"`
	Category      *string         `json:"category"`
	Tags          []string        `json:"tags"`
	PublishedAt   *string         `json:"publishedAt"`
	ReadTime      json.RawMessage `json:"readTime"`
	FeaturedImage *sanityImage    `json:"featuredImage"`
	Body          *string         `json:"body"`
}

type sanityImage struct {
	Asset *struct {
		Ref string `json:"_ref"`
	} `json:"asset"`
	Crop    *imageurl.Crop    `json:"crop"`
	Hotspot *imageurl.Hotspot `json:"hotspot"`
}

func (d sanityPost) summary(logger *zap.Logger) PostSummary {
	var p PostSummary
	if d.Title != nil {
		p.Title = *d.Title
	}
	if d.Slug != nil {
		p.Slug = d.Slug.Current
	}
	if d.Excerpt != nil {
		p.Excerpt = String(*d.Excerpt)
	}
	if d.Category != nil {
		p.Category = String(*d.Category)
	}
	p.Tags = d.Tags
	if d.PublishedAt != nil && *d.PublishedAt != "" {
		if t, ok := parsePublishedAt(*d.PublishedAt); ok {
			p.PublishedAt = &t
		} else {
			logger.Warn("ignoring unparseable publishedAt",
				zap.String("slug", p.Slug), zap.String("value", *d.PublishedAt))
		}
	}
	if n, ok, err := parseReadTime(d.ReadTime); err != nil {
		logger.Warn("ignoring unusable readTime",
			zap.String("slug", p.Slug), zap.ByteString("value", d.ReadTime))
	} else if ok {
		p.ReadTime = Int(n)
	}
	if d.FeaturedImage != nil && d.FeaturedImage.Asset != nil && d.FeaturedImage.Asset.Ref != "" {
		p.FeaturedImage = &imageurl.Ref{
			Asset:   d.FeaturedImage.Asset.Ref,
			Crop:    d.FeaturedImage.Crop,
			Hotspot: d.FeaturedImage.Hotspot,
		}
	}
	return p
}

// publishedAtLayouts are tried in order; date-only values are UTC midnight.
var publishedAtLayouts = []string{time.RFC3339, "2006-01-02"}

func parsePublishedAt(v string) (time.Time, bool) {
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseReadTime accepts a JSON number or a numeric string. ok is false when
// the field is absent or null.
func parseReadTime(raw json.RawMessage) (n int, ok bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, fmt.Errorf("readTime: %s", raw)
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false, fmt.Errorf("readTime: %w", err)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("readTime: %v", f)
	}
	return int(math.Round(f)), true, nil
}
