package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vidstash/internal/common"
	"vidstash/internal/dbx"
	"vidstash/internal/server/providers"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements video storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert creates the placeholder record. The unique index on (user_id, url)
// is the authoritative duplicate signal; a 23505 from it is mapped to
// common.ErrDuplicateVideo so concurrent double-submits cannot both land.
func (r *PostgresRepository) Insert(ctx context.Context, v *SavedVideo) error {
	query := `
		INSERT INTO saved_videos
			(id, user_id, category_id, url, platform, title,
			 thumbnail_source, meta_status, note, reminder_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.UserID, v.CategoryID, v.URL, string(v.Platform), v.Title,
		string(v.ThumbnailSource), string(v.MetaStatus), v.Note, v.ReminderAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrDuplicateVideo
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectColumns = `
	id, user_id, category_id, url, platform, title,
	creator, description, duration_seconds, published_at,
	thumbnail_url, thumbnail_source, meta_status, meta_error, meta_checked_at,
	note, reminder_at, created_at, updated_at
`

func scanVideo(row *sql.Row) (*SavedVideo, error) {
	var v SavedVideo
	var platform, thumbSource, metaStatus string
	err := row.Scan(
		&v.ID, &v.UserID, &v.CategoryID, &v.URL, &platform, &v.Title,
		&v.Creator, &v.Description, &v.DurationSeconds, &v.PublishedAt,
		&v.ThumbnailURL, &thumbSource, &metaStatus, &v.MetaError, &v.MetaCheckedAt,
		&v.Note, &v.ReminderAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	v.Platform = providers.Platform(platform)
	v.ThumbnailSource = ThumbnailSource(thumbSource)
	v.MetaStatus = MetaStatus(metaStatus)
	return &v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*SavedVideo, error) {
	query := `SELECT ` + selectColumns + ` FROM saved_videos WHERE id = $1`
	return scanVideo(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByUserAndURL(ctx context.Context, userID, url string) (*SavedVideo, error) {
	query := `SELECT ` + selectColumns + ` FROM saved_videos WHERE user_id = $1 AND url = $2`
	return scanVideo(r.db.QueryRowContext(ctx, query, userID, url))
}

// ApplyEnrichment writes the one-shot metadata update. The meta_status guard
// keeps the state machine moving forward only: a record that already reached
// ready or failed_meta is never rewritten.
func (r *PostgresRepository) ApplyEnrichment(ctx context.Context, id string, upd EnrichmentUpdate) error {
	query := `
		UPDATE saved_videos SET
			title = $2,
			creator = $3,
			description = $4,
			duration_seconds = $5,
			published_at = $6,
			thumbnail_url = $7,
			thumbnail_source = $8,
			meta_status = $9,
			meta_error = NULL,
			meta_checked_at = $10,
			updated_at = now()
		WHERE id = $1 AND meta_status = $11
	`
	res, err := r.db.ExecContext(ctx, query,
		id, upd.Title, upd.Creator, upd.Description, upd.DurationSeconds,
		upd.PublishedAt, upd.ThumbnailURL, string(upd.ThumbnailSource),
		string(MetaReady), upd.CheckedAt, string(MetaPending))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkEnrichmentFailed(ctx context.Context, id, cause string) error {
	query := `
		UPDATE saved_videos SET
			meta_status = $2,
			meta_error = $3,
			updated_at = now()
		WHERE id = $1 AND meta_status = $4
	`
	res, err := r.db.ExecContext(ctx, query, id, string(MetaFailed), cause, string(MetaPending))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
