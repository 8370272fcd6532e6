package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/phrazzld/gallery-api/internal/store"
)

const itemColumns = `id, uri, caption, created_at, user_id, deleted_at`

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL table as the storage backend.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a PostgresItemStore.
type Option func(*PostgresItemStore)

// WithClock sets the time source used to stamp soft deletes.
func WithClock(now func() time.Time) Option {
	return func(s *PostgresItemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the ItemStore interface.
// It accepts a database connection or transaction; when db is a *sql.DB the
// store takes ownership and Close closes it.
// If logger is nil, a default logger will be used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger, opts ...Option) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store"), slog.String("backend", "postgres")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure PostgresItemStore implements store.ItemStore interface
var _ store.ItemStore = (*PostgresItemStore)(nil)

// Insert implements store.ItemStore.Insert as an upsert on the primary key.
func (s *PostgresItemStore) Insert(ctx context.Context, item *domain.GalleryItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("gallery item validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO gallery_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			uri = EXCLUDED.uri,
			caption = EXCLUDED.caption,
			created_at = EXCLUDED.created_at,
			user_id = EXCLUDED.user_id,
			deleted_at = EXCLUDED.deleted_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.URI,
		item.Caption,
		item.CreatedAt,
		item.UserID,
		nullMillis(item.DeletedAt),
	)
	if err != nil {
		log.Error("failed to insert gallery item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID),
			slog.String("user_id", item.UserID))
		return fmt.Errorf("failed to insert gallery item: %w", MapError(err))
	}

	log.Info("gallery item stored",
		slog.String("item_id", item.ID),
		slog.String("user_id", item.UserID))
	return nil
}

// UpdateCaption implements store.ItemStore.UpdateCaption.
func (s *PostgresItemStore) UpdateCaption(ctx context.Context, id, caption string) error {
	return s.exec(ctx, "update caption", id,
		`UPDATE gallery_items SET caption = $1 WHERE id = $2`, caption, id)
}

// SoftDelete implements store.ItemStore.SoftDelete.
func (s *PostgresItemStore) SoftDelete(ctx context.Context, id string) error {
	return s.exec(ctx, "soft delete", id,
		`UPDATE gallery_items SET deleted_at = $1 WHERE id = $2`, domain.Millis(s.now()), id)
}

// Restore implements store.ItemStore.Restore.
func (s *PostgresItemStore) Restore(ctx context.Context, id string) error {
	return s.exec(ctx, "restore", id,
		`UPDATE gallery_items SET deleted_at = NULL WHERE id = $1`, id)
}

// PermanentDelete implements store.ItemStore.PermanentDelete.
func (s *PostgresItemStore) PermanentDelete(ctx context.Context, id string) error {
	return s.exec(ctx, "permanent delete", id,
		`DELETE FROM gallery_items WHERE id = $1`, id)
}

// exec runs a single-row mutation. Zero affected rows is the defined no-op
// for unknown ids and is only logged.
func (s *PostgresItemStore) exec(ctx context.Context, op, id, query string, args ...any) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("gallery item mutation failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return fmt.Errorf("failed to %s gallery item: %w", op, MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return fmt.Errorf("failed to %s gallery item: %w", op, err)
	}

	if rowsAffected == 0 {
		log.Debug("gallery item not found, nothing to do",
			slog.String("operation", op),
			slog.String("item_id", id))
		return nil
	}

	log.Debug("gallery item updated",
		slog.String("operation", op),
		slog.String("item_id", id))
	return nil
}

// ListActive implements store.ItemStore.ListActive.
func (s *PostgresItemStore) ListActive(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM gallery_items
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id COLLATE "C" ASC
	`
	return s.list(ctx, "active", query, userID)
}

// ListDeleted implements store.ItemStore.ListDeleted.
func (s *PostgresItemStore) ListDeleted(ctx context.Context, userID string) ([]*domain.GalleryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM gallery_items
		WHERE user_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, id COLLATE "C" ASC
	`
	return s.list(ctx, "deleted", query, userID)
}

func (s *PostgresItemStore) list(ctx context.Context, kind, query, userID string) ([]*domain.GalleryItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query gallery items",
			slog.String("list", kind),
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list %s gallery items: %w", kind, MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.GalleryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error("failed to scan gallery item row",
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan gallery item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list %s gallery items: %w", kind, err)
	}

	log.Debug("listed gallery items",
		slog.String("list", kind),
		slog.String("user_id", userID),
		slog.Int("count", len(items)))
	return items, nil
}

// GetByID implements store.ItemStore.GetByID.
func (s *PostgresItemStore) GetByID(ctx context.Context, id string) (*domain.GalleryItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + itemColumns + ` FROM gallery_items WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("gallery item not found", slog.String("item_id", id))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get gallery item by ID",
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return nil, fmt.Errorf("failed to get gallery item: %w", MapError(err))
	}

	return item, nil
}

// Close closes the underlying *sql.DB when the store was built with one.
// Stores built on a transaction leave its lifecycle to the caller.
func (s *PostgresItemStore) Close() error {
	if db, ok := s.db.(*sql.DB); ok {
		return db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.GalleryItem, error) {
	var item domain.GalleryItem
	var deletedAt sql.NullInt64

	if err := row.Scan(
		&item.ID,
		&item.URI,
		&item.Caption,
		&item.CreatedAt,
		&item.UserID,
		&deletedAt,
	); err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		v := deletedAt.Int64
		item.DeletedAt = &v
	}
	return &item, nil
}

func nullMillis(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
