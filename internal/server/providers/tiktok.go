package providers

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"vidstash/internal/htmlx"
)

const tiktokOEmbed = "https://www.tiktok.com/oembed?url="

var tiktokVideoRe = regexp.MustCompile(`^/(@[^/]+)/(?:video|photo)/(\d+)`)

// TikTok handles www.tiktok.com video pages and the vm./vt. shortlink
// domains. Shortlinks cannot be resolved without a network round-trip, so
// canonicalization passes them through and the metadata fetch relies on
// redirect following instead.
type TikTok struct {
	opts Options
}

func NewTikTok(opts Options) *TikTok {
	return &TikTok{opts: opts}
}

func (t *TikTok) Platform() Platform {
	return PlatformTikTok
}

func (t *TikTok) CanHandle(rawURL string) bool {
	return allowedHosts[hostOf(rawURL)] == PlatformTikTok
}

func (t *TikTok) Canonicalize(rawURL string) (string, bool) {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if host == "vm.tiktok.com" || host == "vt.tiktok.com" || strings.HasPrefix(u.Path, "/t/") {
		// Shortlink: defer normalization to the fetch stage.
		return raw, true
	}

	if m := tiktokVideoRe.FindStringSubmatch(u.Path); m != nil {
		return "https://www.tiktok.com/" + m[1] + "/video/" + m[2], true
	}

	// Recognized host but unfamiliar path shape; keep it minus tracking
	// params rather than failing the save.
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), true
}

func (t *TikTok) FetchMetadata(ctx context.Context, canonicalURL string) *VideoMetadata {
	meta := &VideoMetadata{}

	oe, err := fetchOEmbed(ctx, t.opts, tiktokOEmbed, canonicalURL)
	if err == nil && oe.Title != "" {
		meta.Title = strptr(oe.Title)
		if oe.AuthorName != "" {
			meta.Creator = strptr(oe.AuthorName)
		}
		if oe.ThumbnailURL != "" {
			meta.ThumbnailURL = strptr(oe.ThumbnailURL)
			return meta
		}
	}

	page, err := fetchPage(ctx, t.opts, canonicalURL, nil)
	if err != nil {
		return meta
	}

	if meta.Title == nil {
		if title, ok := htmlx.MetaContent(page, "og:title"); ok {
			meta.Title = strptr(title)
		}
	}
	if img, ok := htmlx.MetaContent(page, "og:image"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(img))
		return meta
	}

	// No OG image: TikTok buries cover art in embedded JSON with escaped
	// slashes and unicode sequences.
	if cover, ok := htmlx.JSONStringValue(page, "cover", "originCover", "dynamicCover"); ok {
		meta.ThumbnailURL = strptr(htmlx.UnescapeURL(cover))
	}
	return meta
}
