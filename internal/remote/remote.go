// Package remote backs asynchronous lookups with an HTTP endpoint returning
// JSON items.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

const (
	// TextPlaceholder is replaced by the query-escaped typed text.
	TextPlaceholder = "{{text}}"
	// OperatorPlaceholder is replaced by the decoded operator of the clause.
	OperatorPlaceholder = "{{op}}"

	// ExactParam is added to paste match requests.
	ExactParam = "exact"

	DefaultTimeout = 2 * time.Second
	maxBodyBytes   = 4 << 20
)

// Endpoint is one remote lookup.
type Endpoint struct {
	URL     string
	Timeout time.Duration
	// Text reads the display text of an item for paste matching.
	Text func(search.SourceItem) string
}

// Client runs remote lookups.
type Client struct {
	http *http.Client
	log  logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(log logr.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// NewClient returns a client over a pooled cleanhttp transport.
func NewClient(opts ...Option) *Client {
	c := &Client{http: cleanhttp.DefaultPooledClient(), log: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the endpoint URL.
func (ep Endpoint) Validate() error {
	if !strings.Contains(ep.URL, TextPlaceholder) {
		return fmt.Errorf("url %q has no %s placeholder", ep.URL, TextPlaceholder)
	}
	u, err := url.Parse(expand(ep.URL, "x", ""))
	if err != nil {
		return fmt.Errorf("url %q: %w", ep.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q: scheme must be http or https", ep.URL)
	}
	return nil
}

func expand(tmpl, text, op string) string {
	return strings.NewReplacer(
		TextPlaceholder, url.QueryEscape(text),
		OperatorPlaceholder, url.QueryEscape(op),
	).Replace(tmpl)
}

// Lookup returns a search.LookupFunc for ep. Failures are logged and yield no
// items.
func (c *Client) Lookup(ep Endpoint) search.LookupFunc {
	return func(ctx context.Context, text, op string, _ []search.Matcher) ([]search.SourceItem, error) {
		items, err := c.fetch(ctx, ep, expand(ep.URL, text, op))
		if err != nil {
			c.log.V(1).Info("remote lookup failed", "url", ep.URL, "error", err.Error())
			return nil, nil
		}
		return items, nil
	}
}

// PasteMatch returns a search.PasteMatchFunc for ep. The request carries
// exact=true and the first item whose text equals the token wins.
func (c *Client) PasteMatch(ep Endpoint) search.PasteMatchFunc {
	return func(ctx context.Context, token string) (search.SourceItem, bool, error) {
		target, err := url.Parse(expand(ep.URL, token, ""))
		if err != nil {
			return nil, false, fmt.Errorf("building paste match url: %w", err)
		}
		q := target.Query()
		q.Set(ExactParam, "true")
		target.RawQuery = q.Encode()

		items, err := c.fetch(ctx, ep, target.String())
		if err != nil {
			c.log.V(1).Info("remote paste match failed", "url", ep.URL, "error", err.Error())
			return nil, false, nil
		}
		for _, item := range items {
			if textOf(ep, item) == token {
				return item, true, nil
			}
		}
		return nil, false, nil
	}
}

func textOf(ep Endpoint, item search.SourceItem) string {
	if s, ok := item.(string); ok {
		return s
	}
	if ep.Text != nil {
		return ep.Text(item)
	}
	return fmt.Sprint(item)
}

func (c *Client) fetch(ctx context.Context, ep Endpoint, target string) ([]search.SourceItem, error) {
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requesting %s: status %d", target, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return decodeItems(body)
}

// decodeItems accepts a JSON array or an object with an "items" array.
func decodeItems(body []byte) ([]search.SourceItem, error) {
	var list []search.SourceItem
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Items []search.SourceItem `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	return wrapped.Items, nil
}
