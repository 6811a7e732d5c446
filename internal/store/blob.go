// Package store provides the durable backends that hold the deferred-run
// document between restarts
package store

import (
	"context"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/runq/internal/engine/scheduler"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobStore keeps the deferred document as one object in a bucket,
// supporting S3, GCS, Azure Blob Storage, local files, and memory
type BlobStore struct {
	bucket *blob.Bucket
	key    string
}

var _ scheduler.Store = (*BlobStore)(nil)

// NewBlobStore opens the bucket named by bucketURL
func NewBlobStore(
	ctx context.Context, bucketURL, key string,
) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobStore{bucket: bucket, key: key}, nil
}

// Load implements scheduler.Store
func (s *BlobStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, s.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, scheduler.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save implements scheduler.Store
func (s *BlobStore) Save(ctx context.Context, data []byte) error {
	return s.bucket.WriteAll(ctx, s.key, data, &blob.WriterOptions{
		ContentType: "application/yaml",
	})
}

// Close releases the bucket
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
