package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/hupe1980/omnifs"
)

// Scheme is the URL scheme handled by this backend.
const Scheme = "s3"

func init() {
	omnifs.Register(Scheme, func(ctx context.Context, p omnifs.Params) (omnifs.FS, error) {
		return New(ctx, p)
	})
}

// S3 is an FS over a bucket and key prefix.
type S3 struct {
	omnifs.Base
	bucket string
	prefix string
	cfg    clientConfig
	client objectClient
	logger *omnifs.Logger
}

var _ omnifs.FS = (*S3)(nil)

// New creates an S3 FS from resolved URL parts. The bucket option takes
// precedence over the URL authority so custom scheme configurations can pin
// a bucket.
func New(_ context.Context, p omnifs.Params) (*S3, error) {
	bucket := p.Netloc
	if b, ok := p.Option("bucket"); ok {
		bucket = b
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3: no bucket given")
	}

	cfg := clientConfig{secure: true}
	cfg.endpoint, _ = p.Option("endpoint")
	cfg.region, _ = p.Option("region")
	cfg.accessKey, _ = p.Option("access_key")
	cfg.secretKey, _ = p.Option("secret_key")
	if v, ok := p.Option("secure"); ok {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("s3: invalid secure option %q: %w", v, err)
		}
		cfg.secure = secure
	}

	logger := p.Logger
	if logger == nil {
		logger = omnifs.NoopLogger()
	}
	return &S3{
		Base:   omnifs.NewBase(),
		bucket: bucket,
		prefix: strings.Trim(p.Path, "/"),
		cfg:    cfg,
		logger: logger.WithScheme(Scheme),
	}, nil
}

// reset drops the client so it is lazily rebuilt, never sharing a parent
// process's connections.
func (s *S3) reset() error {
	s.logger.LogForkReset(context.Background(), Scheme, os.Getpid())
	s.client = nil
	return nil
}

func (s *S3) conn(ctx context.Context) (objectClient, error) {
	if err := s.CheckFork(s.reset); err != nil {
		return nil, err
	}
	if s.client != nil {
		return s.client, nil
	}
	var (
		cl  objectClient
		err error
	)
	if s.cfg.endpoint != "" {
		cl, err = newMinioClient(s.cfg, s.bucket)
	} else {
		cl, err = newAWSClient(ctx, s.cfg, s.bucket)
	}
	if err != nil {
		return nil, err
	}
	s.client = cl
	return cl, nil
}

func (s *S3) key(name string) string {
	return strings.Trim(path.Join(s.prefix, s.Cwd(), name), "/")
}

// dirKey returns the key prefix denoting the named directory, "" for the
// FS root.
func (s *S3) dirKey(name string) string {
	k := s.key(name)
	if k == "" {
		return ""
	}
	return k + "/"
}

// Open opens the named object for reading. ReadAt maps to ranged requests.
func (s *S3) Open(ctx context.Context, name string) (omnifs.File, error) {
	cl, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	key := s.key(name)
	info, err := cl.stat(ctx, key)
	if err != nil {
		return nil, err
	}
	return &s3File{ctx: ctx, cl: cl, key: key, size: info.size}, nil
}

// Create opens the named object for writing; the upload is streamed and
// finalized on Close.
func (s *S3) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	cl, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return newS3Writer(ctx, cl, s.key(name)), nil
}

// List returns the entries under prefix. Common prefixes ("directories")
// carry a trailing slash.
func (s *S3) List(ctx context.Context, prefix string, opts ...omnifs.ListOption) ([]string, error) {
	stats, err := s.ListStat(ctx, prefix, opts...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(stats))
	for i, st := range stats {
		names[i] = st.Filename
	}
	return names, nil
}

// ListStat returns full descriptors of the entries under prefix.
func (s *S3) ListStat(ctx context.Context, prefix string, opts ...omnifs.ListOption) ([]*omnifs.FileStat, error) {
	cl, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	o := omnifs.ApplyListOptions(opts)
	full := s.dirKey(prefix)

	infos, err := cl.list(ctx, full, o.Recursive, 0)
	if err != nil {
		return nil, err
	}
	var stats []*omnifs.FileStat
	for _, info := range infos {
		rel := strings.TrimPrefix(info.key, full)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			// The marker object of the listed prefix itself.
			continue
		}
		stats = append(stats, statFromObject(rel, info))
	}
	return stats, nil
}

// Stat returns the descriptor of an object, or a synthesized directory
// descriptor when the name only exists as a key prefix.
func (s *S3) Stat(ctx context.Context, name string) (*omnifs.FileStat, error) {
	cl, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	info, err := cl.stat(ctx, s.key(name))
	if err == nil {
		return statFromObject(strings.TrimSuffix(name, "/"), *info), nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	ok, derr := s.hasPrefix(ctx, name)
	if derr != nil {
		return nil, derr
	}
	if !ok {
		return nil, err
	}
	return &omnifs.FileStat{
		Filename: strings.TrimSuffix(name, "/"),
		Mode:     os.ModeDir | 0o755,
	}, nil
}

// IsDir reports whether any object exists under the named prefix.
func (s *S3) IsDir(ctx context.Context, name string) (bool, error) {
	return s.hasPrefix(ctx, name)
}

// Mkdir is a no-op: object storage directories are implicit prefixes.
func (s *S3) Mkdir(ctx context.Context, _ string, _ os.FileMode) error {
	_, err := s.conn(ctx)
	return err
}

// MakeDirs is a no-op: object storage directories are implicit prefixes.
func (s *S3) MakeDirs(ctx context.Context, _ string, _ os.FileMode) error {
	_, err := s.conn(ctx)
	return err
}

// Exists reports whether the name exists as an object or a prefix.
func (s *S3) Exists(ctx context.Context, name string) (bool, error) {
	cl, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	if _, err := cl.stat(ctx, s.key(name)); err == nil {
		return true, nil
	} else if !isNotFound(err) {
		return false, err
	}
	return s.hasPrefix(ctx, name)
}

// Rename server-side copies src to dst and removes src.
func (s *S3) Rename(ctx context.Context, src, dst string) error {
	cl, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := cl.copyObject(ctx, s.key(src), s.key(dst)); err != nil {
		return err
	}
	return cl.del(ctx, s.key(src))
}

// Remove removes an object, or every object under the prefix when recursive
// is set.
func (s *S3) Remove(ctx context.Context, name string, recursive bool) error {
	cl, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if !recursive {
		if _, err := cl.stat(ctx, s.key(name)); err != nil {
			return err
		}
		return cl.del(ctx, s.key(name))
	}
	infos, err := cl.list(ctx, s.dirKey(name), true, 0)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.isPrefix {
			continue
		}
		if err := cl.del(ctx, info.key); err != nil {
			return err
		}
	}
	// The name may also exist as a plain object.
	if _, err := cl.stat(ctx, s.key(name)); err == nil {
		return cl.del(ctx, s.key(name))
	}
	return nil
}

// Glob is not supported on object storage.
func (s *S3) Glob(_ context.Context, pattern string) ([]string, error) {
	return nil, fmt.Errorf("s3: glob %q: %w", pattern, omnifs.ErrNotSupported)
}

// SubFS returns an S3 FS sharing bucket and prefix with the working
// directory advanced by relPath. The child carries no client; it dials its
// own on first use.
func (s *S3) SubFS(relPath string) (omnifs.FS, error) {
	base, err := s.Sub(relPath)
	if err != nil {
		return nil, err
	}
	sub := *s
	sub.Base = base
	sub.client = nil
	return &sub, nil
}

// Close drops the client. Safe to call multiple times.
func (s *S3) Close() error {
	s.client = nil
	return nil
}

func (s *S3) hasPrefix(ctx context.Context, name string) (bool, error) {
	cl, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	infos, err := cl.list(ctx, s.dirKey(name), true, 1)
	if err != nil {
		return false, err
	}
	return len(infos) > 0, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, omnifs.ErrNotFound)
}

func statFromObject(name string, info objectInfo) *omnifs.FileStat {
	mode := os.FileMode(0o644)
	if info.isPrefix || strings.HasSuffix(info.key, "/") {
		mode = os.ModeDir | 0o755
		if !strings.HasSuffix(name, "/") {
			name += "/"
		}
	}
	return &omnifs.FileStat{
		Filename:     name,
		LastModified: info.lastModified,
		Mode:         mode,
		Size:         info.size,
	}
}
