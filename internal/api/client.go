package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fieldops/fieldview/internal/auth"
)

// GallerySource defines the backend calls the viewer needs for gallery data.
// This interface is implemented by *Client and can be used for testing.
type GallerySource interface {
	FetchGallery(ctx context.Context, galleryID string) ([]Item, error)
	DeleteItem(ctx context.Context, galleryID, itemID string) error
}

// Ensure Client implements GallerySource at compile time.
var _ GallerySource = (*Client)(nil)

// Client talks to the field-operations HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    auth.TokenProvider
}

const (
	defaultAPIBase   = "127.0.0.1:8080"
	defaultUserAgent = "fieldview/0.1"
	requestTimeout   = 15 * time.Second
)

// NewClient builds a Client for apiBase. tokens may be nil, in which case
// requests are sent without an Authorization header. A non-positive timeout
// uses the default.
func NewClient(apiBase string, tokens auth.TokenProvider, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
		tokens:    tokens,
	}, nil
}

// BaseURL returns a copy of the resolved API base.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Open issues an authenticated GET for path (which may carry a query string)
// and returns the raw response. The caller owns the body.
func (c *Client) Open(ctx context.Context, path string) (*http.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	req, err := c.newRequest(ctx, http.MethodGet, pathURL(path))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// FetchGallery retrieves the ordered items of a gallery.
func (c *Client) FetchGallery(ctx context.Context, galleryID string) ([]Item, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	id := strings.TrimSpace(galleryID)
	if id == "" {
		return nil, fmt.Errorf("gallery id required")
	}
	var payload GalleryResponse
	if err := c.do(ctx, http.MethodGet, "/api/galleries/"+url.PathEscape(id)+"/items", &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// DeleteItem removes an item from a gallery. Deleting always requires a session.
func (c *Client) DeleteItem(ctx context.Context, galleryID, itemID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(galleryID) == "" || strings.TrimSpace(itemID) == "" {
		return fmt.Errorf("gallery id and item id required")
	}
	if _, err := auth.Require(c.tokens); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	path := "/api/galleries/" + url.PathEscape(galleryID) + "/items/" + url.PathEscape(itemID)
	return c.do(ctx, http.MethodDelete, path, nil)
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	req, err := c.newRequest(ctx, method, rel)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: rel.String(), Code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// pathURL builds a relative URL from a file path without rejecting stray
// percent signs. Valid escapes such as "%20" are kept; anything else is taken
// literally and escaped on the wire.
func pathURL(path string) *url.URL {
	p, query, _ := strings.Cut(path, "?")
	rel := &url.URL{Path: p, RawQuery: query}
	if unescaped, err := url.PathUnescape(p); err == nil {
		rel.Path = unescaped
		rel.RawPath = p
	}
	return rel
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
