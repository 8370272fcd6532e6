package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phrazzld/gallery-api/internal/platform/logger"
)

const imageContentType = "image/jpeg"

// ObjectAPI is the subset of *minio.Client the relocator uses.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioOptions holds the connection parameters for an S3-compatible endpoint.
type MinioOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool

	// SourceDir is the only directory tree source images are read from.
	SourceDir string
}

// MinioRelocator uploads images to a bucket.
type MinioRelocator struct {
	client  ObjectAPI
	bucket  string
	sources *sourceRoot
	logger  *slog.Logger
}

// NewMinioRelocator connects to the endpoint in opts and makes sure the bucket exists.
func NewMinioRelocator(ctx context.Context, opts MinioOptions, logger *slog.Logger) (*MinioRelocator, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewMinioRelocatorWithClient(ctx, client, opts.Bucket, opts.Region, opts.SourceDir, logger)
}

// NewMinioRelocatorWithClient builds a relocator on an existing client,
// creating the bucket in region when it does not exist yet. Source images
// are read only from beneath sourceDir.
// If logger is nil, a default logger will be used.
func NewMinioRelocatorWithClient(
	ctx context.Context,
	client ObjectAPI,
	bucket, region, sourceDir string,
	logger *slog.Logger,
) (*MinioRelocator, error) {
	sources, err := newSourceRoot(sourceDir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "relocator"),
		slog.String("backend", "minio"),
		slog.String("bucket", bucket))

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", bucket, err)
		}
		log.Info("bucket created")
	}

	return &MinioRelocator{client: client, bucket: bucket, sources: sources, logger: log}, nil
}

var (
	_ Relocator = (*MinioRelocator)(nil)
	_ Remover   = (*MinioRelocator)(nil)
)

// Persist implements Relocator. It returns an s3://<bucket>/<object> URI.
func (r *MinioRelocator) Persist(ctx context.Context, userID, id, sourceURI string) (string, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	name, err := ObjectName(userID, id)
	if err != nil {
		return "", err
	}

	src, size, err := r.sources.open(sourceURI)
	if err != nil {
		log.Warn("cannot open source image",
			slog.String("source_uri", sourceURI),
			slog.String("error", err.Error()))
		return "", err
	}
	defer func() { _ = src.Close() }()

	info, err := r.client.PutObject(ctx, r.bucket, name, src, size, minio.PutObjectOptions{
		ContentType: imageContentType,
	})
	if err != nil {
		log.Error("failed to upload image",
			slog.String("object", name),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	log.Debug("image uploaded",
		slog.String("object", name),
		slog.Int64("size", info.Size),
		slog.String("etag", info.ETag))
	return "s3://" + r.bucket + "/" + name, nil
}

// Remove implements Remover. Removing an absent object succeeds.
func (r *MinioRelocator) Remove(ctx context.Context, userID, id string) error {
	name, err := ObjectName(userID, id)
	if err != nil {
		return err
	}

	if err := r.client.RemoveObject(ctx, r.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Error("failed to remove image",
			slog.String("object", name),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}
