//go:build integration

package blob

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioRelocator_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set, skipping MinIO integration tests")
	}

	ctx := context.Background()
	bucket := "gallery-test-" + uuid.NewString()[:8]
	sources := t.TempDir()
	r, err := NewMinioRelocator(ctx, MinioOptions{
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:          bucket,
		SourceDir:       sources,
	}, nil)
	require.NoError(t, err)

	durable, err := r.Persist(ctx, "u1", "abc", writeSource(t, sources, "jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "s3://"+bucket+"/u1/abc.jpg", durable)
}
