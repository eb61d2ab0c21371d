// AngelaMos | 2026
// client.go

package wix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/socialai/internal/config"
)

const (
	defaultBaseURL = "https://www.wixapis.com"
	defaultTimeout = 20 * time.Second
	maxErrorBody   = 4096
)

var ErrNotConfigured = errors.New("wix api key is not configured")

// APIError is a non-2xx answer from the Wix REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wix api: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	siteID    string
	accountID string
}

type Options struct {
	APIKey     string
	SiteID     string
	AccountID  string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func OptionsFromConfig(cfg config.WixConfig) Options {
	return Options{
		APIKey:    cfg.APIKey,
		SiteID:    cfg.SiteID,
		AccountID: cfg.AccountID,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
	}
}

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		http:      client,
		baseURL:   baseURL,
		apiKey:    strings.TrimSpace(opts.APIKey),
		siteID:    opts.SiteID,
		accountID: opts.AccountID,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type BlogPost struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	ContentText string `json:"contentText,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Status      string `json:"status,omitempty"`
}

type Collection struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// CreateBlogPost creates a draft; nothing is published live without a
// review in the Wix dashboard.
func (c *Client) CreateBlogPost(ctx context.Context, post BlogPost) (*BlogPost, error) {
	if post.Status == "" {
		post.Status = "DRAFT"
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}

	var out struct {
		Post BlogPost `json:"post"`
	}
	in := struct {
		Post BlogPost `json:"post"`
	}{Post: post}

	if err := c.do(ctx, http.MethodPost, "/blog/v3/posts", in, &out); err != nil {
		return nil, fmt.Errorf("create blog post: %w", err)
	}

	return &out.Post, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}

	if err := c.do(ctx, http.MethodGet, "/wix-data/v2/collections", nil, &out); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	if out.Collections == nil {
		out.Collections = []Collection{}
	}
	return out.Collections, nil
}

// Ping reports whether the key is accepted by a cheap read.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.ListCollections(ctx); err != nil {
		return fmt.Errorf("ping wix: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.siteID != "" {
		req.Header.Set("wix-site-id", c.siteID)
	}
	if c.accountID != "" {
		req.Header.Set("wix-account-id", c.accountID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
