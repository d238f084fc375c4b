package s3

import (
	"context"
	"io"
	"time"
)

// objectClient is the seam between FS semantics and the concrete object
// store client (AWS SDK or minio-go).
type objectClient interface {
	// stat returns object metadata, omnifs.ErrNotFound when absent.
	stat(ctx context.Context, key string) (*objectInfo, error)

	// get returns a reader over [off, off+length) of the object. length < 0
	// reads to the end.
	get(ctx context.Context, key string, off, length int64) (io.ReadCloser, error)

	// put streams r into the object. size < 0 means unknown.
	put(ctx context.Context, key string, r io.Reader, size int64) error

	// del removes the object.
	del(ctx context.Context, key string) error

	// copyObject server-side copies src to dst within the bucket.
	copyObject(ctx context.Context, src, dst string) error

	// list returns objects under prefix. Without recursive, entries are
	// delimited on "/" and common prefixes appear with isPrefix set.
	// max > 0 bounds the result, 0 means unbounded.
	list(ctx context.Context, prefix string, recursive bool, max int) ([]objectInfo, error)
}

type objectInfo struct {
	key          string
	size         int64
	lastModified time.Time
	isPrefix     bool
}

// clientConfig holds the string options the backend understands.
type clientConfig struct {
	endpoint  string
	region    string
	accessKey string
	secretKey string
	secure    bool
}
