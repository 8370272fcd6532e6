package blob

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, content string) string {
	t.Helper()
	f, err := os.CreateTemp(dir, "picked-*.jpg")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestLocalRelocator_Persist(t *testing.T) {
	root, sources := t.TempDir(), t.TempDir()
	r, err := NewLocalRelocator(root, sources, nil)
	require.NoError(t, err)

	src := writeSource(t, sources, "jpeg bytes")
	sourceURI := (&url.URL{Scheme: "file", Path: src}).String()

	durable, err := r.Persist(context.Background(), "u1", "abc", sourceURI)
	require.NoError(t, err)

	u, err := url.Parse(durable)
	require.NoError(t, err)
	assert.Equal(t, "file", u.Scheme)
	assert.Equal(t, filepath.Join(root, "u1", "abc.jpg"), filepath.FromSlash(u.Path))

	data, err := os.ReadFile(filepath.FromSlash(u.Path))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	// The source is copied, not moved.
	assert.FileExists(t, src)
}

func TestLocalRelocator_PersistOverwrites(t *testing.T) {
	sources := t.TempDir()
	r, err := NewLocalRelocator(t.TempDir(), sources, nil)
	require.NoError(t, err)

	first, err := r.Persist(context.Background(), "u1", "abc", writeSource(t, sources, "one"))
	require.NoError(t, err)
	second, err := r.Persist(context.Background(), "u1", "abc", writeSource(t, sources, "two"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	u, err := url.Parse(second)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.FromSlash(u.Path))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocalRelocator_PersistRelativeSource(t *testing.T) {
	root, sources := t.TempDir(), t.TempDir()
	r, err := NewLocalRelocator(root, sources, nil)
	require.NoError(t, err)

	src := writeSource(t, sources, "jpeg bytes")
	_, err = r.Persist(context.Background(), "u1", "abc", filepath.Base(src))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "u1", "abc.jpg"))
}

func TestLocalRelocator_Errors(t *testing.T) {
	root, sources := t.TempDir(), t.TempDir()
	r, err := NewLocalRelocator(root, sources, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.Persist(ctx, "u1", "abc", filepath.Join(sources, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = r.Persist(ctx, "u1", "abc", "content://media/external/1")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = r.Persist(ctx, "u1", "abc", sources)
	assert.ErrorIs(t, err, ErrUnsupportedSource, "directories are not images")

	_, err = r.Persist(ctx, "../u2", "abc", writeSource(t, sources, "x"))
	assert.ErrorIs(t, err, ErrInvalidName)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Persist(canceled, "u1", "abc", writeSource(t, sources, "x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(root, "u1", "abc.jpg"))
}

func TestLocalRelocator_SourceConfinement(t *testing.T) {
	root, sources := t.TempDir(), t.TempDir()
	r, err := NewLocalRelocator(root, sources, nil)
	require.NoError(t, err)
	ctx := context.Background()

	outside := writeSource(t, t.TempDir(), "secret")
	link := filepath.Join(sources, "link.jpg")
	require.NoError(t, os.Symlink(outside, link))

	tests := []struct {
		name string
		uri  string
	}{
		{"system file", "/etc/passwd"},
		{"system file uri", "file:///etc/passwd"},
		{"file outside root", outside},
		{"relative escape", "../" + filepath.Base(outside)},
		{"dot-dot inside absolute path", filepath.Join(sources, "..", filepath.Base(outside))},
		{"symlink pointing outside", link},
		{"missing file outside root", "/nonexistent/picked.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Persist(ctx, "u1", "abc", tt.uri)
			assert.ErrorIs(t, err, ErrUnsupportedSource)
			assert.NotErrorIs(t, err, os.ErrNotExist)
		})
	}
	assert.NoFileExists(t, filepath.Join(root, "u1", "abc.jpg"))
}

func TestNewLocalRelocator_RequiresSourceDir(t *testing.T) {
	_, err := NewLocalRelocator(t.TempDir(), "", nil)
	assert.Error(t, err)
}

func TestLocalRelocator_Remove(t *testing.T) {
	root, sources := t.TempDir(), t.TempDir()
	r, err := NewLocalRelocator(root, sources, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.Persist(ctx, "u1", "abc", writeSource(t, sources, "x"))
	require.NoError(t, err)

	require.NoError(t, r.Remove(ctx, "u1", "abc"))
	assert.NoFileExists(t, filepath.Join(root, "u1", "abc.jpg"))
	assert.NoError(t, r.Remove(ctx, "u1", "abc"), "removing a missing image succeeds")
	assert.ErrorIs(t, r.Remove(ctx, "u1", "../x"), ErrInvalidName)
}
