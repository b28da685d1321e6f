package providers

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"vidstash/internal/htmlx"
)

var (
	instagramPostRe = regexp.MustCompile(`^/(p|reel|reels|tv)/([A-Za-z0-9_-]+)`)

	instagramHandleRe = regexp.MustCompile(`\(@([A-Za-z0-9_.]+)\)`)

	// Ordered fallback patterns against Instagram's embedded JSON blobs,
	// tried only when no og:image is present. Candidates are validated as
	// Instagram CDN URLs before acceptance; a match in unrelated page JSON
	// must not win.
	instagramImageKeys = []string{
		"display_url",
		"thumbnail_src",
		"thumbnail_url",
		"cover_frame_url",
		"display_src",
		"poster_url",
		"poster",
	}

	instagramCandidatesRe = regexp.MustCompile(`"image_versions2"\s*:\s*\{\s*"candidates"\s*:\s*\[\s*\{[^\[\]{}]*?"url"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Instagram has no public oEmbed endpoint, so metadata comes from an HTML
// scrape. The request must look like a desktop browser session (realistic
// User-Agent, referer and Instagram's internal x-ig-app-id/x-asbd-id headers),
// otherwise the server answers with a stripped HTML variant carrying no
// metadata.
type Instagram struct {
	opts Options
}

func NewInstagram(opts Options) *Instagram {
	return &Instagram{opts: opts}
}

func (i *Instagram) Platform() Platform {
	return PlatformInstagram
}

func (i *Instagram) CanHandle(rawURL string) bool {
	return allowedHosts[hostOf(rawURL)] == PlatformInstagram
}

// Canonicalize keeps only the media segment and shortcode
// (https://www.instagram.com/reel/CODE/), dropping igshid and the rest of the
// tracking query noise.
func (i *Instagram) Canonicalize(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	m := instagramPostRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return "https://www.instagram.com/" + m[1] + "/" + m[2] + "/", true
}

func (i *Instagram) requestHeaders() map[string]string {
	return map[string]string{
		"Referer":         "https://www.instagram.com/",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"x-ig-app-id":     i.opts.IGAppID,
		"x-asbd-id":       i.opts.IGASBDID,
	}
}

func (i *Instagram) FetchMetadata(ctx context.Context, canonicalURL string) *VideoMetadata {
	meta := &VideoMetadata{
		// The CDN throttles or rejects image fetches without a referer.
		ThumbnailHeaders: map[string]string{"Referer": "https://www.instagram.com/"},
	}

	page, err := fetchPage(ctx, i.opts, canonicalURL, i.requestHeaders())
	if err != nil {
		return meta
	}

	if title, ok := htmlx.MetaContent(page, "og:title"); ok {
		meta.Title = strptr(title)
		if handle, ok := creatorHandleFromTitle(title); ok {
			meta.Creator = strptr(handle)
		}
	}

	if img, ok := htmlx.MetaContent(page, "og:image"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
		return meta
	}
	if img, ok := htmlx.MetaContent(page, "og:image:secure_url"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
		return meta
	}

	if img, ok := instagramImageFromJSON(page); ok {
		meta.ThumbnailURL = strptr(img)
	}
	return meta
}

// instagramImageFromJSON walks the fallback cascade over the page's embedded
// JSON. First candidate that unescapes to an Instagram CDN image URL wins.
func instagramImageFromJSON(page string) (string, bool) {
	if m := instagramCandidatesRe.FindStringSubmatch(page); m != nil {
		if v, ok := validInstagramImageURL(m[1]); ok {
			return v, true
		}
	}
	for _, key := range instagramImageKeys {
		if raw, ok := htmlx.JSONStringValue(page, key); ok {
			if v, ok := validInstagramImageURL(raw); ok {
				return v, true
			}
		}
	}
	return "", false
}

func validInstagramImageURL(raw string) (string, bool) {
	candidate := htmlx.UnescapeURL(raw)
	u, err := url.Parse(candidate)
	if err != nil || u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "cdninstagram") ||
		strings.Contains(host, "fbcdn") ||
		strings.Contains(host, "instagram") {
		return candidate, true
	}
	return "", false
}

// creatorHandleFromTitle pulls an "@handle" out of titles shaped like
// "Some Person (@handle) • Instagram reel".
func creatorHandleFromTitle(title string) (string, bool) {
	if m := instagramHandleRe.FindStringSubmatch(title); m != nil {
		return "@" + m[1], true
	}
	return "", false
}
