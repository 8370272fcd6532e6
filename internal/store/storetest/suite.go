// Package storetest provides the conformance suite every store.ItemStore
// backend must pass. Backends call Run from their own tests with a factory
// that yields an empty store wired to the supplied clock.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/gallery-api/internal/domain"
	"github.com/phrazzld/gallery-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced time source shared between a test and the store under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock reading the given epoch milliseconds.
func NewClock(millis int64) *Clock {
	return &Clock{now: time.UnixMilli(millis)}
}

// Now returns the current reading. Its signature matches the clock option of the stores.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to the given epoch milliseconds.
func (c *Clock) Set(millis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.UnixMilli(millis)
}

// Factory builds an empty store that reads time from clock.
// The store is closed by the suite when the subtest ends.
type Factory func(t *testing.T, clock func() time.Time) store.ItemStore

// Item builds a valid active item for tests.
func Item(id, userID string, createdAt int64) *domain.GalleryItem {
	return &domain.GalleryItem{
		ID:        id,
		URI:       "file:///gallery/" + id + ".jpg",
		Caption:   "",
		CreatedAt: createdAt,
		UserID:    userID,
	}
}

// IDs returns the item IDs in order.
func IDs(items []*domain.GalleryItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	return out
}

type fixture struct {
	ctx   context.Context
	clock *Clock
	store store.ItemStore
}

func setup(t *testing.T, newStore Factory) *fixture {
	t.Helper()
	clock := NewClock(1_000)
	s := newStore(t, clock.Now)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})
	return &fixture{ctx: context.Background(), clock: clock, store: s}
}

func (f *fixture) insert(t *testing.T, items ...*domain.GalleryItem) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, f.store.Insert(f.ctx, item))
	}
}

func (f *fixture) active(t *testing.T, userID string) []*domain.GalleryItem {
	t.Helper()
	items, err := f.store.ListActive(f.ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, items, "ListActive must return an empty slice, not nil")
	return items
}

func (f *fixture) deleted(t *testing.T, userID string) []*domain.GalleryItem {
	t.Helper()
	items, err := f.store.ListDeleted(f.ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, items, "ListDeleted must return an empty slice, not nil")
	return items
}

func (f *fixture) get(t *testing.T, id string) *domain.GalleryItem {
	t.Helper()
	item, err := f.store.GetByID(f.ctx, id)
	require.NoError(t, err)
	return item
}

func (f *fixture) requireMissing(t *testing.T, id string) {
	t.Helper()
	item, err := f.store.GetByID(f.ctx, id)
	assert.Nil(t, item)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

// snapshot captures everything observable about the given users.
func (f *fixture) snapshot(t *testing.T, userIDs ...string) map[string][2][]*domain.GalleryItem {
	t.Helper()
	out := make(map[string][2][]*domain.GalleryItem, len(userIDs))
	for _, u := range userIDs {
		out[u] = [2][]*domain.GalleryItem{f.active(t, u), f.deleted(t, u)}
	}
	return out
}

// Run executes the full conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("lifecycle scenario", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, &domain.GalleryItem{ID: "a", UserID: "u1", URI: "x", Caption: "", CreatedAt: 100})

		assert.Equal(t, []string{"a"}, IDs(f.active(t, "u1")))

		f.clock.Set(200)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))
		assert.Empty(t, f.active(t, "u1"))
		deleted := f.deleted(t, "u1")
		require.Len(t, deleted, 1)
		assert.Equal(t, "a", deleted[0].ID)
		require.NotNil(t, deleted[0].DeletedAt)
		assert.Equal(t, int64(200), *deleted[0].DeletedAt)

		require.NoError(t, f.store.Restore(f.ctx, "a"))
		active := f.active(t, "u1")
		require.Len(t, active, 1)
		assert.Nil(t, active[0].DeletedAt)
		assert.Empty(t, f.deleted(t, "u1"))

		require.NoError(t, f.store.PermanentDelete(f.ctx, "a"))
		f.requireMissing(t, "a")
	})

	t.Run("insert then get returns the item", func(t *testing.T) {
		f := setup(t, newStore)
		want := Item("a", "u1", 100)
		want.Caption = "beach"
		f.insert(t, want)

		got := f.get(t, "a")
		assert.Equal(t, want, got)
	})

	t.Run("upsert replaces every field", func(t *testing.T) {
		f := setup(t, newStore)
		first := Item("a", "u1", 100)
		first.Caption = "first"
		f.insert(t, first)

		second := &domain.GalleryItem{ID: "a", UserID: "u1", URI: "file:///other.jpg", Caption: "second", CreatedAt: 150}
		f.insert(t, second)

		assert.Equal(t, second, f.get(t, "a"))
		active := f.active(t, "u1")
		require.Len(t, active, 1, "upsert must not duplicate the record")
		assert.Equal(t, second, active[0])
	})

	t.Run("upsert keeps global id uniqueness across owners", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		f.insert(t, Item("a", "u2", 120))

		assert.Equal(t, "u2", f.get(t, "a").UserID)
		assert.Empty(t, f.active(t, "u1"))
		assert.Equal(t, []string{"a"}, IDs(f.active(t, "u2")))
	})

	t.Run("insert rejects invalid items", func(t *testing.T) {
		f := setup(t, newStore)
		err := f.store.Insert(f.ctx, &domain.GalleryItem{ID: "", UserID: "u1", URI: "x", CreatedAt: 1})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEmptyItemID)
		assert.Empty(t, f.active(t, "u1"))
	})

	t.Run("active list is newest created first", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("old", "u1", 100), Item("new", "u1", 200))

		assert.Equal(t, []string{"new", "old"}, IDs(f.active(t, "u1")))
	})

	t.Run("active order ignores insertion order", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("m", "u1", 200), Item("h", "u1", 300), Item("l", "u1", 100), Item("t", "u1", 200))

		assert.Equal(t, []string{"h", "m", "t", "l"}, IDs(f.active(t, "u1")))
	})

	t.Run("ties break on byte order of ids", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("b", "u1", 100), Item("a", "u1", 100), Item("B", "u1", 100), Item("_", "u1", 100))

		assert.Equal(t, []string{"B", "_", "a", "b"}, IDs(f.active(t, "u1")))

		f.clock.Set(2_000)
		for _, id := range []string{"b", "B", "a"} {
			require.NoError(t, f.store.SoftDelete(f.ctx, id))
		}
		assert.Equal(t, []string{"B", "a", "b"}, IDs(f.deleted(t, "u1")))
	})

	t.Run("lists are scoped to the owner", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100), Item("b", "u2", 200), Item("c", "u1", 300))
		f.clock.Set(5_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "b"))

		assert.Equal(t, []string{"c", "a"}, IDs(f.active(t, "u1")))
		assert.Empty(t, f.deleted(t, "u1"))
		assert.Empty(t, f.active(t, "u2"))
		assert.Equal(t, []string{"b"}, IDs(f.deleted(t, "u2")))
		assert.Empty(t, f.active(t, "nobody"))
		assert.Empty(t, f.deleted(t, "nobody"))
	})

	t.Run("deleted list is newest deleted first", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 300), Item("b", "u1", 200), Item("c", "u1", 100))

		f.clock.Set(2_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))
		f.clock.Set(4_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "c"))
		f.clock.Set(3_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "b"))

		assert.Equal(t, []string{"c", "b", "a"}, IDs(f.deleted(t, "u1")))
		assert.Empty(t, f.active(t, "u1"))
	})

	t.Run("soft delete twice refreshes the timestamp", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))

		f.clock.Set(2_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))
		f.clock.Set(3_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))

		got := f.get(t, "a")
		require.NotNil(t, got.DeletedAt)
		assert.Equal(t, int64(3_000), *got.DeletedAt)
	})

	t.Run("restore preserves caption and created time", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		require.NoError(t, f.store.UpdateCaption(f.ctx, "a", "sunset"))
		before := f.get(t, "a")

		f.clock.Set(9_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))
		require.NoError(t, f.store.Restore(f.ctx, "a"))

		after := f.get(t, "a")
		assert.Equal(t, before, after)
		assert.Equal(t, []string{"a"}, IDs(f.active(t, "u1")))
	})

	t.Run("restore and soft delete cycle without limit", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))

		for i := int64(1); i <= 3; i++ {
			f.clock.Set(1_000 * i)
			require.NoError(t, f.store.SoftDelete(f.ctx, "a"))
			assert.Equal(t, []string{"a"}, IDs(f.deleted(t, "u1")))
			require.NoError(t, f.store.Restore(f.ctx, "a"))
			assert.Equal(t, []string{"a"}, IDs(f.active(t, "u1")))
		}
	})

	t.Run("restore on active item is idempotent", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		before := f.snapshot(t, "u1")

		require.NoError(t, f.store.Restore(f.ctx, "a"))
		require.NoError(t, f.store.Restore(f.ctx, "a"))

		assert.Equal(t, before, f.snapshot(t, "u1"))
		assert.Nil(t, f.get(t, "a").DeletedAt)
	})

	t.Run("update caption touches only the caption", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		f.clock.Set(7_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))
		before := f.get(t, "a")

		require.NoError(t, f.store.UpdateCaption(f.ctx, "a", "in the bin"))

		after := f.get(t, "a")
		assert.Equal(t, "in the bin", after.Caption)
		after.Caption = before.Caption
		assert.Equal(t, before, after)
	})

	t.Run("update caption can clear the caption", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		require.NoError(t, f.store.UpdateCaption(f.ctx, "a", "first"))
		require.NoError(t, f.store.UpdateCaption(f.ctx, "a", ""))

		assert.Equal(t, "", f.get(t, "a").Caption)
	})

	t.Run("permanent delete removes active items", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100), Item("b", "u1", 200))

		require.NoError(t, f.store.PermanentDelete(f.ctx, "a"))

		f.requireMissing(t, "a")
		assert.Equal(t, []string{"b"}, IDs(f.active(t, "u1")))
		assert.Empty(t, f.deleted(t, "u1"))
	})

	t.Run("permanent delete removes deleted items", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		f.clock.Set(2_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))

		require.NoError(t, f.store.PermanentDelete(f.ctx, "a"))

		f.requireMissing(t, "a")
		assert.Empty(t, f.active(t, "u1"))
		assert.Empty(t, f.deleted(t, "u1"))
	})

	t.Run("id can be reused after permanent delete", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		require.NoError(t, f.store.PermanentDelete(f.ctx, "a"))

		f.insert(t, Item("a", "u2", 500))

		assert.Equal(t, "u2", f.get(t, "a").UserID)
		assert.Empty(t, f.active(t, "u1"))
		assert.Equal(t, []string{"a"}, IDs(f.active(t, "u2")))
	})

	t.Run("operations on unknown ids are silent no-ops", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100), Item("b", "u1", 200))
		f.clock.Set(3_000)
		require.NoError(t, f.store.SoftDelete(f.ctx, "b"))
		before := f.snapshot(t, "u1")

		f.clock.Set(4_000)
		assert.NoError(t, f.store.UpdateCaption(f.ctx, "ghost", "boo"))
		assert.NoError(t, f.store.SoftDelete(f.ctx, "ghost"))
		assert.NoError(t, f.store.Restore(f.ctx, "ghost"))
		assert.NoError(t, f.store.PermanentDelete(f.ctx, "ghost"))

		assert.Equal(t, before, f.snapshot(t, "u1"))
		f.requireMissing(t, "ghost")
	})

	t.Run("get by id sees deleted items", func(t *testing.T) {
		f := setup(t, newStore)
		f.insert(t, Item("a", "u1", 100))
		f.clock.Set(2_500)
		require.NoError(t, f.store.SoftDelete(f.ctx, "a"))

		got := f.get(t, "a")
		require.NotNil(t, got.DeletedAt)
		assert.Equal(t, int64(2_500), *got.DeletedAt)
	})

	t.Run("returned items do not alias stored state", func(t *testing.T) {
		f := setup(t, newStore)
		item := Item("a", "u1", 100)
		f.insert(t, item)
		item.Caption = "mutated after insert"

		got := f.get(t, "a")
		assert.Equal(t, "", got.Caption)
		got.Caption = "mutated after get"

		assert.Equal(t, "", f.get(t, "a").Caption)
	})
}
