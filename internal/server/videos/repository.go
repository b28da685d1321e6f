package videos

import "context"

type Repository interface {
	// Insert persists a new record. Returns common.ErrDuplicateVideo when a
	// record for the same (user, canonical URL) already exists.
	Insert(ctx context.Context, v *SavedVideo) error

	// GetByID returns a record or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*SavedVideo, error)

	// FindByUserAndURL returns the record for the dedup key or
	// common.ErrNotFound.
	FindByUserAndURL(ctx context.Context, userID, url string) (*SavedVideo, error)

	// ApplyEnrichment moves a record to meta_status=ready and writes the
	// extracted metadata, clearing any prior error.
	ApplyEnrichment(ctx context.Context, id string, upd EnrichmentUpdate) error

	// MarkEnrichmentFailed moves a record to meta_status=failed_meta with a
	// human-readable cause.
	MarkEnrichmentFailed(ctx context.Context, id, cause string) error
}
