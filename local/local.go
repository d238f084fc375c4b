// Package local implements the omnifs FS contract on the local file system.
//
// Importing the package registers it for the "file" scheme, which is also
// the default for URLs without a scheme.
package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/omnifs"
)

// Scheme is the URL scheme handled by this backend.
const Scheme = "file"

func init() {
	omnifs.Register(Scheme, func(ctx context.Context, p omnifs.Params) (omnifs.FS, error) {
		return New(ctx, p)
	})
}

// Local is an FS over a local directory root.
type Local struct {
	omnifs.Base
	root   string
	logger *omnifs.Logger
}

var _ omnifs.FS = (*Local)(nil)

// New creates a Local FS rooted at p.Path. With p.Create the root directory
// is created if absent.
func New(_ context.Context, p omnifs.Params) (*Local, error) {
	root := p.Path
	if root == "" {
		root = "."
	}
	if p.Create {
		if err := os.MkdirAll(root, 0o777); err != nil {
			return nil, err
		}
	}
	logger := p.Logger
	if logger == nil {
		logger = omnifs.NoopLogger()
	}
	return &Local{
		Base:   omnifs.NewBase(),
		root:   root,
		logger: logger,
	}, nil
}

// The local backend holds no process-bound resources; open *os.File handles
// remain valid across fork, so reset has nothing to drop.
func (l *Local) reset() error { return nil }

func (l *Local) resolve(name string) string {
	return filepath.Join(l.root, filepath.FromSlash(l.Cwd()), filepath.FromSlash(name))
}

// Open opens the named file for reading.
func (l *Local) Open(_ context.Context, name string) (omnifs.File, error) {
	if err := l.CheckFork(l.reset); err != nil {
		return nil, err
	}
	return os.Open(l.resolve(name))
}

// Create creates or truncates the named file for writing.
func (l *Local) Create(_ context.Context, name string) (io.WriteCloser, error) {
	if err := l.CheckFork(l.reset); err != nil {
		return nil, err
	}
	return os.Create(l.resolve(name))
}

// List returns the entries under prefix. Directory names carry a trailing
// slash.
func (l *Local) List(ctx context.Context, prefix string, opts ...omnifs.ListOption) ([]string, error) {
	stats, err := l.ListStat(ctx, prefix, opts...)
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
func (l *Local) ListStat(_ context.Context, prefix string, opts ...omnifs.ListOption) ([]*omnifs.FileStat, error) {
	if err := l.CheckFork(l.reset); err != nil {
		return nil, err
	}
	o := omnifs.ApplyListOptions(opts)
	base := l.resolve(prefix)

	var stats []*omnifs.FileStat
	if !o.Recursive {
		entries, err := os.ReadDir(base)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				return nil, err
			}
			stats = append(stats, statFromInfo(entryName(e.Name(), e.IsDir()), info))
		}
		return stats, nil
	}

	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == base {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats = append(stats, statFromInfo(entryName(filepath.ToSlash(rel), d.IsDir()), info))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Stat returns the descriptor of the named file or directory.
func (l *Local) Stat(_ context.Context, name string) (*omnifs.FileStat, error) {
	if err := l.CheckFork(l.reset); err != nil {
		return nil, err
	}
	info, err := os.Stat(l.resolve(name))
	if err != nil {
		return nil, err
	}
	return statFromInfo(strings.TrimSuffix(name, "/"), info), nil
}

// IsDir reports whether the named path is an existing directory.
func (l *Local) IsDir(ctx context.Context, name string) (bool, error) {
	st, err := l.Stat(ctx, name)
	if err != nil {
		return false, err
	}
	return st.IsDir(), nil
}

// Mkdir creates a single directory.
func (l *Local) Mkdir(_ context.Context, name string, perm os.FileMode) error {
	if err := l.CheckFork(l.reset); err != nil {
		return err
	}
	return os.Mkdir(l.resolve(name), perm)
}

// MakeDirs creates the named directory along with any missing parents.
func (l *Local) MakeDirs(_ context.Context, name string, perm os.FileMode) error {
	if err := l.CheckFork(l.reset); err != nil {
		return err
	}
	return os.MkdirAll(l.resolve(name), perm)
}

// Exists reports whether the path exists, following symlinks.
func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	if err := l.CheckFork(l.reset); err != nil {
		return false, err
	}
	_, err := os.Stat(l.resolve(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Rename renames src to dst.
func (l *Local) Rename(_ context.Context, src, dst string) error {
	if err := l.CheckFork(l.reset); err != nil {
		return err
	}
	return os.Rename(l.resolve(src), l.resolve(dst))
}

// Remove removes a file, or a whole directory when recursive is set.
func (l *Local) Remove(_ context.Context, name string, recursive bool) error {
	if err := l.CheckFork(l.reset); err != nil {
		return err
	}
	if recursive {
		return os.RemoveAll(l.resolve(name))
	}
	return os.Remove(l.resolve(name))
}

// Glob returns the names matching pattern, relative to the working
// directory.
func (l *Local) Glob(_ context.Context, pattern string) ([]string, error) {
	if err := l.CheckFork(l.reset); err != nil {
		return nil, err
	}
	base := l.resolve("")
	matches, err := filepath.Glob(filepath.Join(base, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(base, m)
		if err != nil {
			return nil, err
		}
		names = append(names, filepath.ToSlash(rel))
	}
	return names, nil
}

// SubFS returns a Local sharing the root with the working directory advanced
// by relPath.
func (l *Local) SubFS(relPath string) (omnifs.FS, error) {
	base, err := l.Sub(relPath)
	if err != nil {
		return nil, err
	}
	sub := *l
	sub.Base = base
	return &sub, nil
}

// Close is a no-op; Local holds no resources between operations.
func (l *Local) Close() error { return nil }

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
