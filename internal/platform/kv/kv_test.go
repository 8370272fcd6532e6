package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreTests exercises the Store contract against stores built by newStore.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "gallery_items_u1", `[{"id":"a"}]`))

		v, err := s.Get(ctx, "gallery_items_u1")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"a"}]`, v)
	})

	t.Run("set replaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "one"))
		require.NoError(t, s.Set(ctx, "k", "two"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", v)
	})

	t.Run("empty value is distinct from missing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", ""))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Delete(ctx, "k"))

		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "k"), "deleting a missing key is not an error")
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a/b", "1"))
		require.NoError(t, s.Set(ctx, "a", "2"))

		v, err := s.Get(ctx, "a/b")
		require.NoError(t, err)
		assert.Equal(t, "1", v)
		v, err = s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})
}

func TestMemory(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s := NewMemory()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemory_Closed(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v"), ErrClosed)
	assert.ErrorIs(t, s.Delete(context.Background(), "k"), ErrClosed)
}

func TestMemory_CanceledContext(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Set(ctx, "k", "v"), context.Canceled)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
