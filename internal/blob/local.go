package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/phrazzld/gallery-api/internal/platform/logger"
)

// LocalRelocator copies images into a directory on the local filesystem.
type LocalRelocator struct {
	dir     string
	sources *sourceRoot
	logger  *slog.Logger
}

// NewLocalRelocator creates a relocator rooted at dir that reads source
// images only from beneath sourceDir. Both directories are created if needed.
// If logger is nil, a default logger will be used.
func NewLocalRelocator(dir, sourceDir string, logger *slog.Logger) (*LocalRelocator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	sources, err := newSourceRoot(sourceDir)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LocalRelocator{
		dir:     abs,
		sources: sources,
		logger:  logger.With(slog.String("component", "relocator"), slog.String("backend", "local")),
	}, nil
}

var (
	_ Relocator = (*LocalRelocator)(nil)
	_ Remover   = (*LocalRelocator)(nil)
)

// Persist implements Relocator. It returns a file:// URI of the copy.
func (r *LocalRelocator) Persist(ctx context.Context, userID, id, sourceURI string) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	name, err := ObjectName(userID, id)
	if err != nil {
		return "", err
	}

	src, _, err := r.sources.open(sourceURI)
	if err != nil {
		log.Warn("cannot open source image",
			slog.String("source_uri", sourceURI),
			slog.String("error", err.Error()))
		return "", err
	}
	defer func() { _ = src.Close() }()

	dst := filepath.Join(r.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return "", fmt.Errorf("failed to create user image directory: %w", err)
	}

	if err := copyFile(ctx, dst, src); err != nil {
		log.Error("failed to copy image",
			slog.String("item_id", id),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return "", err
	}

	durable := (&url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}).String()
	log.Debug("image relocated",
		slog.String("item_id", id),
		slog.String("uri", durable))
	return durable, nil
}

// Remove implements Remover.
func (r *LocalRelocator) Remove(ctx context.Context, userID, id string) error {
	name, err := ObjectName(userID, id)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(r.dir, filepath.FromSlash(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}

	logger.FromContextOrDefault(ctx, r.logger).Debug("image removed",
		slog.String("item_id", id),
		slog.String("user_id", userID))
	return nil
}

// copyFile writes src to a temporary sibling of dst and renames it into place.
func copyFile(ctx context.Context, dst string, src io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to copy image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp image: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}
