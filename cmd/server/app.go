package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/gallery-api/internal/blob"
	"github.com/phrazzld/gallery-api/internal/config"
	"github.com/phrazzld/gallery-api/internal/events"
	"github.com/phrazzld/gallery-api/internal/platform/docstore"
	"github.com/phrazzld/gallery-api/internal/platform/kv"
	"github.com/phrazzld/gallery-api/internal/platform/postgres"
	"github.com/phrazzld/gallery-api/internal/service"
	"github.com/phrazzld/gallery-api/internal/service/auth"
	"github.com/phrazzld/gallery-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	items     store.ItemStore
	relocator blob.Relocator

	jwtService     auth.JWTService
	galleryService service.GalleryService

	eventEmitter *events.InMemoryEventEmitter
}

// newApplication creates a new application instance with all dependencies initialized.
// Resources opened before a failure are released before returning.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.items, err = setupItemStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.relocator, err = setupRelocator(ctx, cfg, logger)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.AuditHandler(logger))
	if remover, ok := app.relocator.(blob.Remover); ok {
		app.eventEmitter.RegisterHandler(blob.NewPurgeHandler(remover, logger))
	}

	app.galleryService, err = service.NewGalleryService(app.items, app.relocator, app.eventEmitter, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create gallery service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupItemStore opens the configured item store backend.
func setupItemStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ItemStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return postgres.NewPostgresItemStore(db, logger), nil

	case config.StoreBackendDocument:
		kvs, err := setupKV(ctx, cfg.KV)
		if err != nil {
			return nil, err
		}
		logger.Info("Document store opened", slog.String("kv_backend", cfg.KV.Backend))
		return docstore.NewDocumentItemStore(kvs, logger), nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// setupKV opens the key-value store under the document backend.
func setupKV(ctx context.Context, cfg config.KVConfig) (kv.Store, error) {
	switch cfg.Backend {
	case config.KVBackendMemory:
		return kv.NewMemory(), nil

	case config.KVBackendFile:
		s, err := kv.OpenFileStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file kv store: %w", err)
		}
		return s, nil

	case config.KVBackendRedis:
		s, err := kv.NewRedisStore(ctx, kv.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis kv store: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported kv backend %q", cfg.Backend)
	}
}

// setupRelocator creates the durable image storage backend.
func setupRelocator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blob.Relocator, error) {
	switch cfg.Blob.Backend {
	case config.BlobBackendLocal:
		r, err := blob.NewLocalRelocator(cfg.Blob.Dir, cfg.Blob.SourceDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create local relocator: %w", err)
		}
		return r, nil

	case config.BlobBackendMinio:
		m := cfg.Blob.Minio
		r, err := blob.NewMinioRelocator(ctx, blob.MinioOptions{
			Endpoint:        m.Endpoint,
			AccessKeyID:     m.AccessKeyID,
			SecretAccessKey: m.SecretAccessKey,
			Bucket:          m.Bucket,
			Region:          m.Region,
			UseSSL:          m.UseSSL,
			SourceDir:       cfg.Blob.SourceDir,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio relocator: %w", err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unsupported blob backend %q", cfg.Blob.Backend)
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.items != nil {
		if err := app.items.Close(); err != nil {
			app.logger.Error("Error closing item store", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("Application shutdown completed")
}
