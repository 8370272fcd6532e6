package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sourceRoot confines the source images a relocator may read to one
// directory tree. Relative source paths are taken relative to it.
type sourceRoot struct {
	dir     string // absolute, cleaned
	realDir string // dir with symlinks resolved
}

func newSourceRoot(dir string) (*sourceRoot, error) {
	if dir == "" {
		return nil, errors.New("source directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create source directory: %w", err)
	}
	realDir, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}
	return &sourceRoot{dir: abs, realDir: realDir}, nil
}

// within reports whether path names root or something beneath it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve maps a source URI to a real path inside the root. The path is
// checked before and after symlink resolution, so files outside the root
// are rejected without revealing whether they exist.
func (s *sourceRoot) resolve(sourceURI string) (string, error) {
	path, err := sourcePath(sourceURI)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	path = filepath.Clean(path)

	if !within(s.dir, path) && !within(s.realDir, path) {
		return "", fmt.Errorf("%w: %q is outside the source directory", ErrUnsupportedSource, sourceURI)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to open source image: %w", err)
	}
	if !within(s.realDir, resolved) {
		return "", fmt.Errorf("%w: %q resolves outside the source directory", ErrUnsupportedSource, sourceURI)
	}
	return resolved, nil
}

// open opens the source image and reports its size.
func (s *sourceRoot) open(sourceURI string) (*os.File, int64, error) {
	path, err := s.resolve(sourceURI)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open source image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat source image: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %q is a directory", ErrUnsupportedSource, path)
	}
	return f, info.Size(), nil
}
