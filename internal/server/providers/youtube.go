package providers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"vidstash/internal/htmlx"
)

const youtubeOEmbed = "https://www.youtube.com/oembed?format=json&url="

var youtubeIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// YouTube recognizes youtube.com/watch, youtu.be, shorts, embed and live
// URLs. Metadata comes from the official oEmbed endpoint with an Open Graph
// scrape as the last resort.
type YouTube struct {
	opts Options
}

func NewYouTube(opts Options) *YouTube {
	return &YouTube{opts: opts}
}

func (y *YouTube) Platform() Platform {
	return PlatformYouTube
}

func (y *YouTube) CanHandle(rawURL string) bool {
	return allowedHosts[hostOf(rawURL)] == PlatformYouTube
}

// Canonicalize reduces every YouTube URL variant to
// https://www.youtube.com/watch?v=ID, preserving the start-time parameter t
// when the input carries one. Returns false when no recognizable video ID is
// present.
func (y *YouTube) Canonicalize(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	var id string
	host := strings.ToLower(u.Hostname())
	path := strings.Trim(u.Path, "/")

	switch {
	case host == "youtu.be":
		id, _, _ = strings.Cut(path, "/")
	case u.Path == "/watch":
		id = u.Query().Get("v")
	default:
		for _, prefix := range []string{"shorts/", "embed/", "live/", "v/"} {
			if rest, ok := strings.CutPrefix(path, prefix); ok {
				id, _, _ = strings.Cut(rest, "/")
				break
			}
		}
	}

	if !youtubeIDRe.MatchString(id) {
		return "", false
	}

	canonical := "https://www.youtube.com/watch?v=" + id
	if t := u.Query().Get("t"); t != "" {
		canonical += "&t=" + url.QueryEscape(t)
	}
	return canonical, true
}

func (y *YouTube) FetchMetadata(ctx context.Context, canonicalURL string) *VideoMetadata {
	meta := &VideoMetadata{}

	oe, err := fetchOEmbed(ctx, y.opts, youtubeOEmbed, canonicalURL)
	if err == nil {
		if oe.Title != "" {
			meta.Title = strptr(oe.Title)
		}
		if oe.AuthorName != "" {
			meta.Creator = strptr(oe.AuthorName)
		}
		if oe.ThumbnailURL != "" {
			meta.ThumbnailURL = strptr(y.bestThumbnail(ctx, canonicalURL, oe.ThumbnailURL))
		}
		return meta
	}

	// oEmbed down or captcha-walled; scrape Open Graph tags instead.
	page, err := fetchPage(ctx, y.opts, canonicalURL, nil)
	if err != nil {
		return meta
	}
	if title, ok := htmlx.MetaContent(page, "og:title"); ok {
		meta.Title = strptr(title)
	}
	if img, ok := htmlx.MetaContent(page, "og:image"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
	}
	return meta
}

// bestThumbnail upgrades the oEmbed thumbnail (hqdefault) to maxresdefault
// when the CDN has one, verified with a cheap HEAD probe.
func (y *YouTube) bestThumbnail(ctx context.Context, canonicalURL, fallback string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return fallback
	}
	id := u.Query().Get("v")
	if !youtubeIDRe.MatchString(id) {
		return fallback
	}
	maxres := fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", id)
	if headOK(ctx, y.opts, maxres) {
		return maxres
	}
	return fallback
}
