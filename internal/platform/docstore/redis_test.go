//go:build integration

package docstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/gallery-api/internal/platform/docstore"
	"github.com/phrazzld/gallery-api/internal/platform/kv"
	"github.com/phrazzld/gallery-api/internal/store"
	"github.com/phrazzld/gallery-api/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestDocumentItemStore_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration tests")
	}

	storetest.Run(t, func(t *testing.T, clock func() time.Time) store.ItemStore {
		rs, err := kv.NewRedisStore(context.Background(), kv.RedisOptions{
			Addr:      addr,
			KeyPrefix: "gallery-test-" + uuid.NewString() + ":",
		})
		require.NoError(t, err)
		return docstore.NewDocumentItemStore(rs, nil, docstore.WithClock(clock))
	})
}
