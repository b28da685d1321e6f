package videos

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"vidstash/internal/server/providers"
)

// thumbnailExtensions maps the accepted thumbnail content types to blob key
// extensions. Anything else is treated as "no usable thumbnail".
var thumbnailExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// enrichDetached is the fire-and-forget wrapper around one enrichment run.
// It owns its own context, recovers panics, and converts any escape into a
// failed_meta write; nothing ever rejoins the caller's control flow.
func (s *Service) enrichDetached(v *SavedVideo, provider providers.Provider) {
	defer s.bg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "enrichment panic", "id", v.ID, "cause", r)
			s.failEnrichment(ctx, v.ID, fmt.Sprintf("enrichment panic: %v", r))
		}
	}()

	s.enrich(ctx, v, provider)
}

// enrich runs once per saved record, never retried. Provider and thumbnail
// failures degrade to nulled fields; only the final record write failing
// produces the failed_meta terminal state.
func (s *Service) enrich(ctx context.Context, v *SavedVideo, provider providers.Provider) {
	meta := provider.FetchMetadata(ctx, v.URL)

	upd := EnrichmentUpdate{
		Title:           v.Platform.GenericTitle(),
		Creator:         meta.Creator,
		Description:     meta.Description,
		DurationSeconds: meta.DurationSeconds,
		PublishedAt:     meta.PublishedAt,
		ThumbnailSource: ThumbnailNone,
		CheckedAt:       time.Now().UTC(),
	}
	if meta.Title != nil && strings.TrimSpace(*meta.Title) != "" {
		upd.Title = strings.TrimSpace(*meta.Title)
	}

	if meta.ThumbnailURL != nil {
		if hosted, ok := s.rehostThumbnail(ctx, v, *meta.ThumbnailURL, meta.ThumbnailHeaders); ok {
			upd.ThumbnailURL = &hosted
			upd.ThumbnailSource = ThumbnailDirect
		}
	}

	if err := s.repo.ApplyEnrichment(ctx, v.ID, upd); err != nil {
		s.logger.Error(ctx, "enrichment update failed", "id", v.ID, "error", err)
		s.failEnrichment(ctx, v.ID, fmt.Sprintf("metadata update failed: %v", err))
		return
	}

	s.logger.Info(ctx, "enrichment complete", "id", v.ID,
		"thumbnail", string(upd.ThumbnailSource))
}

// rehostThumbnail downloads a platform thumbnail, validates it, and uploads
// it into the owned blob store under a deterministic key. Any failure means
// "no usable thumbnail", never an error: hotlinking is not a fallback.
func (s *Service) rehostThumbnail(ctx context.Context, v *SavedVideo, remoteURL string, headers map[string]string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.thumbTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", false
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := s.thumbClient.Do(req)
	if err != nil {
		s.logger.Warn(ctx, "thumbnail download failed", "id", v.ID, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false
	}

	contentType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return "", false
	}
	ext, ok := thumbnailExtensions[contentType]
	if !ok {
		s.logger.Warn(ctx, "thumbnail rejected: content type", "id", v.ID, "type", contentType)
		return "", false
	}
	if resp.ContentLength > s.thumbMaxBytes {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.thumbMaxBytes+1))
	if err != nil {
		return "", false
	}
	if int64(len(body)) > s.thumbMaxBytes {
		s.logger.Warn(ctx, "thumbnail rejected: too large", "id", v.ID, "bytes", len(body))
		return "", false
	}

	key := fmt.Sprintf("%s/%s.%s", v.Platform, v.ID, ext)
	if err := s.blob.Upload(ctx, key, body, contentType); err != nil {
		s.logger.Warn(ctx, "thumbnail upload failed", "id", v.ID, "error", err)
		return "", false
	}

	return s.blob.PublicURL(key), true
}

// failEnrichment writes the terminal failure state. Best effort: if this
// write also fails, the record stays pending_meta and surfaces to the user
// as processing indefinitely.
func (s *Service) failEnrichment(ctx context.Context, id, cause string) {
	if err := s.repo.MarkEnrichmentFailed(ctx, id, cause); err != nil {
		s.logger.Error(ctx, "failure write failed, record left pending", "id", id, "error", err)
	}
}
