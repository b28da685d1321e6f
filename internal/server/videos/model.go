// Package videos holds the saved-video record model, its Postgres
// repository, and the ingestion service: the save orchestrator plus the
// detached metadata-enrichment worker.
package videos

import (
	"time"

	"vidstash/internal/server/providers"
)

// MetaStatus is the enrichment state machine. It only ever moves forward:
// pending_meta to ready, or pending_meta to failed_meta.
type MetaStatus string

const (
	MetaPending MetaStatus = "pending_meta"
	MetaReady   MetaStatus = "ready"
	MetaFailed  MetaStatus = "failed_meta"
)

// ThumbnailSource records where the stored thumbnail came from. "direct"
// means a re-hosted copy in our own blob store; "none" is a valid terminal
// state, not an error.
type ThumbnailSource string

const (
	ThumbnailDirect ThumbnailSource = "direct"
	ThumbnailNone   ThumbnailSource = "none"
)

// SavedVideo is one bookmarked link. URL always holds the canonical form,
// never the raw input; (UserID, URL) is the dedup key.
type SavedVideo struct {
	ID         string
	UserID     string
	CategoryID string
	URL        string
	Platform   providers.Platform

	Title           string
	Creator         *string
	Description     *string
	DurationSeconds *int
	PublishedAt     *time.Time

	ThumbnailURL    *string
	ThumbnailSource ThumbnailSource

	MetaStatus    MetaStatus
	MetaError     *string
	MetaCheckedAt *time.Time

	Note       *string
	ReminderAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnrichmentUpdate is the single asynchronous mutation applied to a record
// after metadata extraction finishes.
type EnrichmentUpdate struct {
	Title           string
	Creator         *string
	Description     *string
	DurationSeconds *int
	PublishedAt     *time.Time
	ThumbnailURL    *string
	ThumbnailSource ThumbnailSource
	CheckedAt       time.Time
}
