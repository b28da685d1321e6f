package providers

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"vidstash/internal/htmlx"
)

const loomOEmbed = "https://www.loom.com/v1/oembed?url="

var loomShareRe = regexp.MustCompile(`^/(?:share|embed)/([A-Za-z0-9]+)`)

// Loom recordings live at loom.com/share/<id>. The official oEmbed endpoint
// is the happy path and also carries a description and duration; Open Graph
// tags are the fallback.
type Loom struct {
	opts Options
}

func NewLoom(opts Options) *Loom {
	return &Loom{opts: opts}
}

func (l *Loom) Platform() Platform {
	return PlatformLoom
}

func (l *Loom) CanHandle(rawURL string) bool {
	return allowedHosts[hostOf(rawURL)] == PlatformLoom
}

func (l *Loom) Canonicalize(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	m := loomShareRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return "https://www.loom.com/share/" + m[1], true
}

func (l *Loom) FetchMetadata(ctx context.Context, canonicalURL string) *VideoMetadata {
	meta := &VideoMetadata{}

	oe, err := fetchOEmbed(ctx, l.opts, loomOEmbed, canonicalURL)
	if err == nil {
		if oe.Title != "" {
			meta.Title = strptr(oe.Title)
		}
		if oe.AuthorName != "" {
			meta.Creator = strptr(oe.AuthorName)
		}
		if oe.Description != "" {
			meta.Description = strptr(oe.Description)
		}
		if oe.Duration > 0 {
			meta.DurationSeconds = intptr(int(oe.Duration))
		}
		if oe.ThumbnailURL != "" {
			meta.ThumbnailURL = strptr(oe.ThumbnailURL)
		}
		return meta
	}

	page, err := fetchPage(ctx, l.opts, canonicalURL, nil)
	if err != nil {
		return meta
	}
	if title, ok := htmlx.MetaContent(page, "og:title"); ok {
		meta.Title = strptr(title)
	}
	if desc, ok := htmlx.MetaContent(page, "og:description"); ok {
		meta.Description = strptr(desc)
	}
	if author, ok := htmlx.MetaContent(page, "og:video:tag"); ok {
		meta.Creator = strptr(author)
	}
	if img, ok := htmlx.MetaContent(page, "og:image"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
	}
	return meta
}
