// Package hdfs implements the omnifs FS contract on HDFS via
// github.com/colinmarc/hdfs.
//
// Importing the package registers it for the "hdfs" scheme. The namenode
// address comes from the URL authority (hdfs://namenode:8020/path); with an
// empty authority the client falls back to the Hadoop configuration in
// HADOOP_CONF_DIR. The "user" backend option overrides the Hadoop user.
//
// The client connection is stateful, which makes forking hazardous: the
// connection is dialed lazily and dropped on fork detection so a forked
// child dials its own, never reusing the parent's sockets.
package hdfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	"github.com/hupe1980/omnifs"
)

// Scheme is the URL scheme handled by this backend.
const Scheme = "hdfs"

func init() {
	omnifs.Register(Scheme, func(ctx context.Context, p omnifs.Params) (omnifs.FS, error) {
		return New(ctx, p)
	})
}

// HDFS is an FS over a directory in a Hadoop filesystem.
type HDFS struct {
	omnifs.Base
	addr   string
	user   string
	root   string
	create bool
	client *hdfs.Client
	logger *omnifs.Logger
}

var _ omnifs.FS = (*HDFS)(nil)

// New creates an HDFS FS from resolved URL parts. The connection is not
// dialed until the first operation.
func New(_ context.Context, p omnifs.Params) (*HDFS, error) {
	user, _ := p.Option("user")
	logger := p.Logger
	if logger == nil {
		logger = omnifs.NoopLogger()
	}
	return &HDFS{
		Base:   omnifs.NewBase(),
		addr:   p.Netloc,
		user:   user,
		root:   p.Path,
		create: p.Create,
		logger: logger.WithScheme(Scheme),
	}, nil
}

// reset drops the client; a live namenode connection must never cross a
// fork. The parent's connection is left untouched (closing it here would
// tear down the parent's session too).
func (h *HDFS) reset() error {
	h.logger.LogForkReset(context.Background(), Scheme, os.Getpid())
	h.client = nil
	return nil
}

func (h *HDFS) conn() (*hdfs.Client, error) {
	if err := h.CheckFork(h.reset); err != nil {
		return nil, err
	}
	if h.client != nil {
		return h.client, nil
	}

	var opts hdfs.ClientOptions
	if h.addr != "" {
		opts.Addresses = strings.Split(h.addr, ",")
	} else {
		conf, err := hadoopconf.LoadFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("hdfs: load hadoop conf: %w", err)
		}
		opts = hdfs.ClientOptionsFromConf(conf)
	}
	if h.user != "" {
		opts.User = h.user
	}
	if opts.User == "" && opts.KerberosClient == nil {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("hdfs: resolve current user: %w", err)
		}
		opts.User = u.Username
	}
	client, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("hdfs: connect %q: %w", h.addr, err)
	}
	h.client = client

	if h.create {
		if err := client.MkdirAll(h.resolve(""), 0o755); err != nil {
			return nil, err
		}
		h.create = false
	}
	return client, nil
}

func (h *HDFS) resolve(name string) string {
	return path.Join("/", h.root, h.Cwd(), name)
}

// Open opens the named file for reading.
func (h *HDFS) Open(_ context.Context, name string) (omnifs.File, error) {
	client, err := h.conn()
	if err != nil {
		return nil, err
	}
	return client.Open(h.resolve(name))
}

// Create creates or truncates the named file for writing.
func (h *HDFS) Create(_ context.Context, name string) (io.WriteCloser, error) {
	client, err := h.conn()
	if err != nil {
		return nil, err
	}
	return client.Create(h.resolve(name))
}

// List returns the entries under prefix. Directory names carry a trailing
// slash.
func (h *HDFS) List(ctx context.Context, prefix string, opts ...omnifs.ListOption) ([]string, error) {
	stats, err := h.ListStat(ctx, prefix, opts...)
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
func (h *HDFS) ListStat(_ context.Context, prefix string, opts ...omnifs.ListOption) ([]*omnifs.FileStat, error) {
	client, err := h.conn()
	if err != nil {
		return nil, err
	}
	o := omnifs.ApplyListOptions(opts)
	base := h.resolve(prefix)

	var stats []*omnifs.FileStat
	if !o.Recursive {
		infos, err := client.ReadDir(base)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			stats = append(stats, statFromInfo(entryName(info.Name(), info.IsDir()), info))
		}
		return stats, nil
	}

	err = client.Walk(base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == base {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, base), "/")
		stats = append(stats, statFromInfo(entryName(rel, info.IsDir()), info))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Stat returns the descriptor of the named file or directory.
func (h *HDFS) Stat(_ context.Context, name string) (*omnifs.FileStat, error) {
	client, err := h.conn()
	if err != nil {
		return nil, err
	}
	info, err := client.Stat(h.resolve(name))
	if err != nil {
		return nil, err
	}
	return statFromInfo(strings.TrimSuffix(name, "/"), info), nil
}

// IsDir reports whether the named path is an existing directory.
func (h *HDFS) IsDir(ctx context.Context, name string) (bool, error) {
	st, err := h.Stat(ctx, name)
	if err != nil {
		return false, err
	}
	return st.IsDir(), nil
}

// Mkdir creates a single directory.
func (h *HDFS) Mkdir(_ context.Context, name string, perm os.FileMode) error {
	client, err := h.conn()
	if err != nil {
		return err
	}
	return client.Mkdir(h.resolve(name), perm)
}

// MakeDirs creates the named directory along with any missing parents.
func (h *HDFS) MakeDirs(_ context.Context, name string, perm os.FileMode) error {
	client, err := h.conn()
	if err != nil {
		return err
	}
	return client.MkdirAll(h.resolve(name), perm)
}

// Exists reports whether the path exists.
func (h *HDFS) Exists(_ context.Context, name string) (bool, error) {
	client, err := h.conn()
	if err != nil {
		return false, err
	}
	if _, err := client.Stat(h.resolve(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Rename renames src to dst.
func (h *HDFS) Rename(_ context.Context, src, dst string) error {
	client, err := h.conn()
	if err != nil {
		return err
	}
	return client.Rename(h.resolve(src), h.resolve(dst))
}

// Remove removes a file, or a whole directory when recursive is set.
func (h *HDFS) Remove(_ context.Context, name string, recursive bool) error {
	client, err := h.conn()
	if err != nil {
		return err
	}
	if recursive {
		return client.RemoveAll(h.resolve(name))
	}
	return client.Remove(h.resolve(name))
}

// Glob is not supported on HDFS.
func (h *HDFS) Glob(_ context.Context, pattern string) ([]string, error) {
	return nil, fmt.Errorf("hdfs: glob %q: %w", pattern, omnifs.ErrNotSupported)
}

// SubFS returns an HDFS FS sharing the namenode and root with the working
// directory advanced by relPath. The child carries no connection; it dials
// its own on first use.
func (h *HDFS) SubFS(relPath string) (omnifs.FS, error) {
	base, err := h.Sub(relPath)
	if err != nil {
		return nil, err
	}
	sub := *h
	sub.Base = base
	sub.client = nil
	return &sub, nil
}

// Close closes the namenode connection. Safe to call multiple times.
func (h *HDFS) Close() error {
	if h.client == nil {
		return nil
	}
	client := h.client
	h.client = nil
	if h.Forked() {
		// Never operate on a connection dialed by another process.
		return nil
	}
	return client.Close()
}

func entryName(name string, isDir bool) string {
	if isDir && !strings.HasSuffix(name, "/") {
		return name + "/"
	}
	return name
}

func statFromInfo(name string, info os.FileInfo) *omnifs.FileStat {
	return &omnifs.FileStat{
		Filename:     name,
		LastModified: info.ModTime(),
		Mode:         info.Mode(),
		Size:         info.Size(),
	}
}
