package providers

import (
	"context"
	"net/url"
	"strings"

	"vidstash/internal/htmlx"
)

// Snapchat URLs arrive almost exclusively as t.snapchat.com shortlinks from
// the share sheet. Those cannot be normalized without resolving the redirect,
// so canonicalization passes them through; the fetch stage follows redirects
// to the real story or spotlight page.
type Snapchat struct {
	opts Options
}

func NewSnapchat(opts Options) *Snapchat {
	return &Snapchat{opts: opts}
}

func (s *Snapchat) Platform() Platform {
	return PlatformSnapchat
}

func (s *Snapchat) CanHandle(rawURL string) bool {
	return allowedHosts[hostOf(rawURL)] == PlatformSnapchat
}

func (s *Snapchat) Canonicalize(rawURL string) (string, bool) {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if strings.ToLower(u.Hostname()) == "t.snapchat.com" {
		return raw, true
	}

	// Full web URLs (spotlight, stories, add) just lose tracking params.
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), true
}

func (s *Snapchat) FetchMetadata(ctx context.Context, canonicalURL string) *VideoMetadata {
	meta := &VideoMetadata{}

	page, err := fetchPage(ctx, s.opts, canonicalURL, nil)
	if err != nil {
		return meta
	}

	if title, ok := htmlx.MetaContent(page, "og:title"); ok {
		meta.Title = strptr(title)
	}
	if desc, ok := htmlx.MetaContent(page, "og:description"); ok {
		meta.Description = strptr(desc)
	}
	if img, ok := htmlx.MetaContent(page, "og:image"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
		return meta
	}

	if img, ok := htmlx.JSONStringValue(page, "thumbnailUrl", "coverImageUrl", "poster"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
	}
	return meta
}
