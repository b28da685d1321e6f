package videos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidstash/internal/common"
	"vidstash/internal/logging"
	"vidstash/internal/server/providers"
)

// enrichTimeout bounds one whole background enrichment run.
const enrichTimeout = 2 * time.Minute

// BlobStore is the thumbnail storage collaborator. Upload has upsert
// semantics: re-running enrichment for the same record writes the same key.
type BlobStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	PublicURL(key string) string
}

// SaveRequest is the inbound save call.
type SaveRequest struct {
	URL        string
	UserID     string
	CategoryID string
	Note       *string
	ReminderAt *time.Time
}

// SaveResult is returned to the caller as soon as the placeholder record is
// persisted; enrichment has not run yet.
type SaveResult struct {
	VideoID  string
	Platform providers.Platform
}

// Service orchestrates the ingestion pipeline: allowlist check, provider
// dispatch, canonicalization, duplicate detection, placeholder insert, and
// the fire-and-forget enrichment spawn.
type Service struct {
	repo     Repository
	registry *providers.Registry
	blob     BlobStore
	logger   logging.Logger

	// Thumbnail download limits, 5 seconds and 5 MiB by default.
	thumbClient   *http.Client
	thumbTimeout  time.Duration
	thumbMaxBytes int64

	bg sync.WaitGroup
}

// Config carries the service's tunables.
type Config struct {
	ThumbnailTimeout  time.Duration
	ThumbnailMaxBytes int64
}

func NewService(repo Repository, registry *providers.Registry, blob BlobStore, logger logging.Logger, cfg Config) *Service {
	if cfg.ThumbnailTimeout <= 0 {
		cfg.ThumbnailTimeout = 5 * time.Second
	}
	if cfg.ThumbnailMaxBytes <= 0 {
		cfg.ThumbnailMaxBytes = 5 << 20
	}
	return &Service{
		repo:          repo,
		registry:      registry,
		blob:          blob,
		logger:        logger,
		thumbClient:   &http.Client{},
		thumbTimeout:  cfg.ThumbnailTimeout,
		thumbMaxBytes: cfg.ThumbnailMaxBytes,
	}
}

// SaveVideoLink accepts a shared URL and persists a placeholder record.
// It returns as soon as the insert lands; metadata enrichment runs detached
// and its failures never reach this caller.
//
// Error contract: common.ErrUnsupportedPlatform and common.ErrDuplicateVideo
// are the two sentinels callers pattern-match on; everything else is generic.
func (s *Service) SaveVideoLink(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if !s.registry.IsAllowed(req.URL) {
		return nil, common.ErrUnsupportedPlatform
	}

	// Should not miss after the allowlist check; defends against allowlist
	// and provider set drifting apart.
	provider, ok := s.registry.Match(req.URL)
	if !ok {
		return nil, common.ErrNoProvider
	}

	canonical, ok := provider.Canonicalize(req.URL)
	if !ok {
		return nil, common.ErrCannotParseURL
	}

	// Early duplicate answer. The unique index behind Insert stays the
	// authoritative check for two near-simultaneous submits.
	if _, err := s.repo.FindByUserAndURL(ctx, req.UserID, canonical); err == nil {
		return nil, common.ErrDuplicateVideo
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	v := &SavedVideo{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		CategoryID:      req.CategoryID,
		URL:             canonical,
		Platform:        provider.Platform(),
		Title:           provider.Platform().GenericTitle(),
		ThumbnailSource: ThumbnailNone,
		MetaStatus:      MetaPending,
		Note:            req.Note,
		ReminderAt:      req.ReminderAt,
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		if errors.Is(err, common.ErrDuplicateVideo) {
			return nil, common.ErrDuplicateVideo
		}
		return nil, fmt.Errorf("insert failed: %w", err)
	}

	s.logger.Info(ctx, "saved video link", "id", v.ID, "platform", v.Platform, "user", v.UserID)

	s.bg.Add(1)
	go s.enrichDetached(v, provider)

	return &SaveResult{VideoID: v.ID, Platform: v.Platform}, nil
}

// GetVideo returns a saved record, letting clients observe meta_status.
func (s *Service) GetVideo(ctx context.Context, id string) (*SavedVideo, error) {
	return s.repo.GetByID(ctx, id)
}

// Wait blocks until all in-flight enrichment goroutines finish. Called on
// shutdown so a closing server does not strand records in pending_meta more
// than necessary.
func (s *Service) Wait() {
	s.bg.Wait()
}
