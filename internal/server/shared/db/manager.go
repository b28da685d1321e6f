// Package db wires the Postgres connection, runs migrations, and hands out
// repositories.
package db

import (
	"context"
	"database/sql"

	"vidstash/internal/server/videos"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Videos() videos.Repository
}
