package docstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/gallery-api/internal/platform/docstore"
	"github.com/phrazzld/gallery-api/internal/platform/kv"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
	"github.com/phrazzld/gallery-api/internal/store"
	"github.com/phrazzld/gallery-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentItemStore_Memory(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock func() time.Time) store.ItemStore {
		return docstore.NewDocumentItemStore(kv.NewMemory(), nil, docstore.WithClock(clock))
	})
}

func TestDocumentItemStore_File(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock func() time.Time) store.ItemStore {
		fs, err := kv.OpenFileStore(t.TempDir())
		require.NoError(t, err)
		return docstore.NewDocumentItemStore(fs, nil, docstore.WithClock(clock))
	})
}

func TestNewDocumentItemStore_NilKV(t *testing.T) {
	assert.Panics(t, func() { docstore.NewDocumentItemStore(nil, nil) })
}

func TestDocumentItemStore_Layout(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	clock := storetest.NewClock(5_000)
	s := docstore.NewDocumentItemStore(mem, nil, docstore.WithClock(clock.Now))

	require.NoError(t, s.Insert(ctx, storetest.Item("a", "u1", 100)))
	require.NoError(t, s.Insert(ctx, storetest.Item("b", "u1", 200)))
	require.NoError(t, s.SoftDelete(ctx, "a"))

	rawList, err := mem.Get(ctx, docstore.ListKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "gallery_items_u1", docstore.ListKey("u1"))

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(rawList), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0]["id"], "new items are placed at the head of the list")
	assert.Equal(t, "a", list[1]["id"])
	assert.Equal(t, float64(5_000), list[1]["deletedAt"])
	assert.Nil(t, list[0]["deletedAt"])
	assert.Contains(t, list[0], "deletedAt", "active items carry an explicit null")
	for _, field := range []string{"uri", "caption", "createdAt", "userId"} {
		assert.Contains(t, list[0], field)
	}

	rawIndex, err := mem.Get(ctx, docstore.IndexKey)
	require.NoError(t, err)
	var index map[string]string
	require.NoError(t, json.Unmarshal([]byte(rawIndex), &index))
	assert.Equal(t, map[string]string{"a": "u1", "b": "u1"}, index)

	require.NoError(t, s.PermanentDelete(ctx, "a"))
	rawIndex, err = mem.Get(ctx, docstore.IndexKey)
	require.NoError(t, err)
	var after map[string]string
	require.NoError(t, json.Unmarshal([]byte(rawIndex), &after))
	assert.Equal(t, map[string]string{"b": "u1"}, after)
}

func TestDocumentItemStore_ReplaceKeepsPosition(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := docstore.NewDocumentItemStore(mem, nil)

	require.NoError(t, s.Insert(ctx, storetest.Item("a", "u1", 100)))
	require.NoError(t, s.Insert(ctx, storetest.Item("b", "u1", 200)))

	replacement := storetest.Item("a", "u1", 100)
	replacement.Caption = "beach"
	require.NoError(t, s.Insert(ctx, replacement))

	raw, err := mem.Get(ctx, docstore.ListKey("u1"))
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0]["id"])
	assert.Equal(t, "a", list[1]["id"])
	assert.Equal(t, "beach", list[1]["caption"])
}

// An index entry whose list lost the item is tolerated by every operation.
func TestDocumentItemStore_StaleIndexEntry(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := docstore.NewDocumentItemStore(mem, nil)

	require.NoError(t, mem.Set(ctx, docstore.IndexKey, `{"ghost":"u1"}`))
	require.NoError(t, mem.Set(ctx, docstore.ListKey("u1"), `[]`))

	assert.NoError(t, s.UpdateCaption(ctx, "ghost", "x"))
	assert.NoError(t, s.SoftDelete(ctx, "ghost"))
	assert.NoError(t, s.Restore(ctx, "ghost"))

	_, err := s.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	require.NoError(t, s.PermanentDelete(ctx, "ghost"))
	raw, err := mem.Get(ctx, docstore.IndexKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, raw)
}

// A list entry missing from the index still shows in listings but cannot be
// addressed by ID, matching the outcome of an interrupted insert.
func TestDocumentItemStore_UnindexedListEntry(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := docstore.NewDocumentItemStore(mem, nil)

	require.NoError(t, mem.Set(ctx, docstore.ListKey("u1"),
		`[{"id":"orphan","uri":"file:///o.jpg","caption":"","createdAt":10,"userId":"u1","deletedAt":null}]`))

	active, err := s.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan"}, storetest.IDs(active))

	require.NoError(t, s.SoftDelete(ctx, "orphan"))
	active, err = s.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan"}, storetest.IDs(active), "unindexed entries are not mutated")

	_, err = s.GetByID(ctx, "orphan")
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestDocumentItemStore_MalformedDocument(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := docstore.NewDocumentItemStore(mem, nil)

	require.NoError(t, mem.Set(ctx, docstore.ListKey("u1"), `not json`))

	_, err := s.ListActive(ctx, "u1")
	require.Error(t, err)
	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "decode", storeErr.Operation)
	assert.Equal(t, "gallery_items", storeErr.Entity)
}

func TestDocumentItemStore_NullListEntry(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := docstore.NewDocumentItemStore(mem, nil)

	require.NoError(t, mem.Set(ctx, docstore.IndexKey, `{"a":"u1"}`))
	require.NoError(t, mem.Set(ctx, docstore.ListKey("u1"), `[null]`))

	assertDecodeError := func(t *testing.T, err error) {
		t.Helper()
		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "decode", storeErr.Operation)
		assert.Equal(t, "gallery_items", storeErr.Entity)
	}

	require.NotPanics(t, func() {
		_, err := s.ListActive(ctx, "u1")
		assertDecodeError(t, err)

		_, err = s.GetByID(ctx, "a")
		assertDecodeError(t, err)

		assertDecodeError(t, s.SoftDelete(ctx, "a"))
	})
}

type failingKV struct {
	kv.Store
	failSet map[string]bool
}

var errBackend = errors.New("backend unavailable")

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failSet[key] {
		return errBackend
	}
	return f.Store.Set(ctx, key, value)
}

func TestDocumentItemStore_BackendFailurePropagates(t *testing.T) {
	ctx := context.Background()
	backing := &failingKV{Store: kv.NewMemory(), failSet: map[string]bool{docstore.IndexKey: true}}
	log, buf := logger.NewTestLogger(t)
	s := docstore.NewDocumentItemStore(backing, log)

	err := s.Insert(ctx, storetest.Item("a", "u1", 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, buf.String(), "failed to write document")

	// The list write succeeded before the index write failed.
	active, err := s.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, storetest.IDs(active))
}

func TestDocumentItemStore_CloseClosesKV(t *testing.T) {
	mem := kv.NewMemory()
	s := docstore.NewDocumentItemStore(mem, nil)
	require.NoError(t, s.Close())

	_, err := mem.Get(context.Background(), "k")
	assert.ErrorIs(t, err, kv.ErrClosed)
}
