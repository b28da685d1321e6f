package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxHTMLBytes caps how much of a platform page is read while scraping.
const maxHTMLBytes = 2 << 20

// oembedResponse covers the subset of the oEmbed payload the pipeline uses.
// YouTube, TikTok and Loom all expose official JSON oEmbed endpoints; Loom
// additionally fills description and duration.
type oembedResponse struct {
	Title        string  `json:"title"`
	AuthorName   string  `json:"author_name"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Description  string  `json:"description"`
	Duration     float64 `json:"duration"`
}

// fetchBody issues a GET for rawURL and returns up to maxHTMLBytes of the
// response body. Redirects are followed, which is what resolves TikTok and
// Snapchat shortlinks. Non-2xx statuses are errors.
func fetchBody(ctx context.Context, opts Options, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
}

// fetchPage is fetchBody returning the body as a string.
func fetchPage(ctx context.Context, opts Options, rawURL string, headers map[string]string) (string, error) {
	b, err := fetchBody(ctx, opts, rawURL, headers)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fetchOEmbed queries an oEmbed endpoint for target. endpoint must end with
// the query parameter the URL is appended to (e.g. ".../oembed?url=").
func fetchOEmbed(ctx context.Context, opts Options, endpoint, target string) (*oembedResponse, error) {
	body, err := fetchBody(ctx, opts, endpoint+url.QueryEscape(target), nil)
	if err != nil {
		return nil, err
	}
	var meta oembedResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("oembed decode: %w", err)
	}
	return &meta, nil
}

// headOK probes rawURL with a HEAD request and reports whether it answered
// with a 2xx status. Used for the YouTube maxresdefault thumbnail probe.
func headOK(ctx context.Context, opts Options, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

func strptr(s string) *string { return &s }

func intptr(i int) *int { return &i }
