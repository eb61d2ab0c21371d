// AngelaMos | 2026
// fetcher.go

package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/carterperez-dev/socialai/internal/config"
)

const (
	DefaultMaxChars = 3000
	defaultMaxBytes = 2 << 20
	defaultTimeout  = 15 * time.Second
)

var ErrFetch = errors.New("fetch content from url")

// Any <...> token, including ones spanning lines. Not an HTML parser:
// script and style bodies survive as text.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	MaxChars   int
	UserAgent  string
}

func OptionsFromConfig(cfg config.FetchConfig) Options {
	return Options{
		Timeout:   cfg.Timeout,
		MaxBytes:  cfg.MaxBytes,
		MaxChars:  cfg.MaxChars,
		UserAgent: cfg.UserAgent,
	}
}

type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	maxChars  int
	userAgent string
}

func NewFetcher(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return &Fetcher{
		client:    client,
		maxBytes:  maxBytes,
		maxChars:  maxChars,
		userAgent: opts.UserAgent,
	}
}

func IsURL(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://")
}

// Resolve returns text ready for prompting. Plain text passes through
// untouched; a URL is fetched, stripped of tags and cut to maxChars runes,
// which may split a word.
func (f *Fetcher) Resolve(ctx context.Context, content string) (string, error) {
	if !IsURL(content) {
		return content, nil
	}

	body, err := f.fetch(ctx, strings.TrimSpace(content))
	if err != nil {
		return "", err
	}

	return Truncate(StripTags(body), f.maxChars), nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	return string(data), nil
}

func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Truncate keeps the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
