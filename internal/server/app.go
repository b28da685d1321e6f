// Package server initializes and runs the VidStash ingestion server. It
// wires the Postgres record store, the S3 thumbnail store, the platform
// provider registry and the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"vidstash/internal/logging"
	"vidstash/internal/server/blob"
	"vidstash/internal/server/config"
	"vidstash/internal/server/httpapi"
	"vidstash/internal/server/providers"
	"vidstash/internal/server/shared/db"
	"vidstash/internal/server/videos"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	service *videos.Service
	api     *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	manager, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := blob.NewS3Store(context.Background(), blob.Config{
		RootUser:      c.S3RootUser,
		RootPassword:  c.S3RootPassword,
		Region:        c.S3Region,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	registry := providers.NewRegistry(providers.Options{
		Client:    &http.Client{Timeout: c.FetchTimeout},
		UserAgent: c.UserAgent,
		IGAppID:   c.IGAppID,
		IGASBDID:  c.IGASBDID,
	})

	service := videos.NewService(manager.Videos(), registry, store, logger, videos.Config{
		ThumbnailTimeout:  c.ThumbnailTimeout,
		ThumbnailMaxBytes: c.ThumbnailMaxBytes,
	})

	api := httpapi.NewServer(c.EndpointAddr, logger, service, []byte(c.SecretKey))

	return &App{config: c, logger: logger, service: service, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	// Let in-flight enrichment goroutines finish before exiting.
	app.service.Wait()
}
