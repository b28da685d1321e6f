// Package providers implements per-platform URL recognition, canonicalization
// and metadata extraction for the link ingestion pipeline. Each supported
// platform (YouTube, TikTok, Instagram, Snapchat, Loom) gets one Provider that
// isolates that platform's quirks; the Registry routes an incoming URL to the
// first provider that claims it.
package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Platform identifies one of the supported social platforms.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformSnapchat  Platform = "snapchat"
	PlatformLoom      Platform = "loom"
)

// GenericTitle returns the placeholder title used until (or instead of) a
// real title arrives from metadata extraction.
func (p Platform) GenericTitle() string {
	switch p {
	case PlatformYouTube:
		return "YouTube Video"
	case PlatformTikTok:
		return "TikTok Video"
	case PlatformInstagram:
		return "Instagram Video"
	case PlatformSnapchat:
		return "Snapchat Video"
	case PlatformLoom:
		return "Loom Video"
	default:
		return "Video"
	}
}

// VideoMetadata is the result of a metadata fetch. Every field is optional;
// a fetch that extracted nothing is still a valid result.
type VideoMetadata struct {
	Title           *string
	Creator         *string
	Description     *string
	DurationSeconds *int
	PublishedAt     *time.Time

	// ThumbnailURL points at the platform's CDN. ThumbnailHeaders carries
	// request headers the CDN requires (Instagram rejects image requests
	// without a referer).
	ThumbnailURL     *string
	ThumbnailHeaders map[string]string
}

// Provider is the per-platform contract.
//
// FetchMetadata never returns an error: network failures, non-2xx responses
// and unparseable markup all degrade to a VideoMetadata with nil fields. The
// enrichment worker relies on this being a total function.
type Provider interface {
	Platform() Platform

	// CanHandle reports whether rawURL belongs to this provider's platform.
	CanHandle(rawURL string) bool

	// Canonicalize normalizes rawURL to its stable canonical form. The
	// second return value is false when the platform's URL shape cannot be
	// parsed at all. Shortlinks that need a network round-trip to resolve
	// are passed through unchanged.
	Canonicalize(rawURL string) (string, bool)

	FetchMetadata(ctx context.Context, canonicalURL string) *VideoMetadata
}

// Options carries the shared fetch configuration handed to every provider.
type Options struct {
	Client    *http.Client
	UserAgent string

	// Instagram internal API headers. Required, not optional: without them
	// the server returns a stripped, metadata-poor HTML variant. The values
	// are version-dependent and therefore configurable.
	IGAppID  string
	IGASBDID string
}

// DefaultOptions returns fetch options usable out of the box.
func DefaultOptions() Options {
	return Options{
		Client:    &http.Client{Timeout: 10 * time.Second},
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		IGAppID:   "936619743392459",
		IGASBDID:  "129477",
	}
}

// allowedHosts is the fixed first-line filter: every domain or subdomain
// variant each supported platform is known to use, shortlink domains
// included. Anything else is rejected before parsing or network cost.
var allowedHosts = map[string]Platform{
	"youtube.com":          PlatformYouTube,
	"www.youtube.com":      PlatformYouTube,
	"m.youtube.com":        PlatformYouTube,
	"music.youtube.com":    PlatformYouTube,
	"youtu.be":             PlatformYouTube,
	"tiktok.com":           PlatformTikTok,
	"www.tiktok.com":       PlatformTikTok,
	"m.tiktok.com":         PlatformTikTok,
	"vm.tiktok.com":        PlatformTikTok,
	"vt.tiktok.com":        PlatformTikTok,
	"instagram.com":        PlatformInstagram,
	"www.instagram.com":    PlatformInstagram,
	"m.instagram.com":      PlatformInstagram,
	"instagr.am":           PlatformInstagram,
	"snapchat.com":         PlatformSnapchat,
	"www.snapchat.com":     PlatformSnapchat,
	"t.snapchat.com":       PlatformSnapchat,
	"story.snapchat.com":   PlatformSnapchat,
	"loom.com":             PlatformLoom,
	"www.loom.com":         PlatformLoom,
}

// hostOf parses rawURL and returns its lower-cased hostname (port stripped).
// Returns "" when rawURL does not parse as an absolute http(s) URL.
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Registry holds the allowlist and the ordered provider list, built once at
// startup and passed by reference into the ingestion service.
type Registry struct {
	providers []Provider
	allowed   map[string]Platform
}

// NewRegistry builds the registry with all five platform providers sharing
// the given fetch options.
func NewRegistry(opts Options) *Registry {
	if opts.Client == nil {
		opts.Client = DefaultOptions().Client
	}
	allowed := make(map[string]Platform, len(allowedHosts))
	for h, p := range allowedHosts {
		allowed[h] = p
	}
	return &Registry{
		providers: []Provider{
			NewYouTube(opts),
			NewTikTok(opts),
			NewInstagram(opts),
			NewSnapchat(opts),
			NewLoom(opts),
		},
		allowed: allowed,
	}
}

// IsAllowed reports whether rawURL's hostname belongs to a supported
// platform. Unparseable input yields false, never an error.
func (r *Registry) IsAllowed(rawURL string) bool {
	_, ok := r.allowed[hostOf(rawURL)]
	return ok
}

// Match returns the first provider that can handle rawURL.
func (r *Registry) Match(rawURL string) (Provider, bool) {
	for _, p := range r.providers {
		if p.CanHandle(rawURL) {
			return p, true
		}
	}
	return nil, false
}
