package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hupe1980/omnifs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioClient implements objectClient on minio-go for S3-compatible
// endpoints (MinIO, Ceph, ...).
type minioClient struct {
	c      *minio.Client
	bucket string
}

func newMinioClient(cfg clientConfig, bucket string) (*minioClient, error) {
	host := cfg.endpoint
	secure := cfg.secure
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("s3: invalid endpoint %q: %w", cfg.endpoint, err)
		}
		host = u.Host
		secure = u.Scheme != "http"
	}

	var creds *credentials.Credentials
	if cfg.accessKey != "" {
		creds = credentials.NewStaticV4(cfg.accessKey, cfg.secretKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	cl, err := minio.New(host, &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: cfg.region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: connect endpoint %q: %w", cfg.endpoint, err)
	}
	return &minioClient{c: cl, bucket: bucket}, nil
}

func (m *minioClient) stat(ctx context.Context, key string) (*objectInfo, error) {
	info, err := m.c.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, omnifs.ErrNotFound
		}
		return nil, err
	}
	return &objectInfo{
		key:          key,
		size:         info.Size,
		lastModified: info.LastModified,
	}, nil
}

func (m *minioClient) get(ctx context.Context, key string, off, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if length < 0 {
		if err := opts.SetRange(off, 0); err != nil {
			return nil, err
		}
	} else {
		if err := opts.SetRange(off, off+length-1); err != nil {
			return nil, err
		}
	}
	obj, err := m.c.GetObject(ctx, m.bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (m *minioClient) put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := m.c.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{})
	return err
}

func (m *minioClient) del(ctx context.Context, key string) error {
	err := m.c.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil // Already gone
		}
		return err
	}
	return nil
}

func (m *minioClient) copyObject(ctx context.Context, src, dst string) error {
	_, err := m.c.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: m.bucket, Object: src},
	)
	return err
}

func (m *minioClient) list(ctx context.Context, prefix string, recursive bool, max int) ([]objectInfo, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}
	if max > 0 {
		opts.MaxKeys = max
	}

	var infos []objectInfo
	for obj := range m.c.ListObjects(ctx, m.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		infos = append(infos, objectInfo{
			key:          obj.Key,
			size:         obj.Size,
			lastModified: obj.LastModified,
			isPrefix:     strings.HasSuffix(obj.Key, "/"),
		})
		if max > 0 && len(infos) >= max {
			break
		}
	}
	return infos, nil
}
