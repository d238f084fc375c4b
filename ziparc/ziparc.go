// Package ziparc implements a read-only omnifs FS over a zip archive stored
// in any other backend.
//
// Importing the package registers it as the archive wrapper for the ".zip"
// suffix and the "zip" force type, so URLs like /data/train.zip or
// s3://bucket/data/train.zip transparently open the archive over the parent
// directory's backend.
//
// The archive handle is a per-instance resource: SubFS and fork detection
// drop it and lazily re-open the archive through the parent FS instead of
// sharing a parent's handle. Closing a ZipFS releases the handle but does
// not close the parent FS.
package ziparc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/hupe1980/omnifs"
	"github.com/klauspost/compress/zip"
)

// ForceType is the force-type marker selecting archive wrapping regardless
// of the path suffix.
const ForceType = "zip"

// Suffix is the path suffix triggering transparent archive detection.
const Suffix = ".zip"

func init() {
	omnifs.RegisterArchive(ForceType, Suffix, func(ctx context.Context, parent omnifs.FS, name string) (omnifs.FS, error) {
		return New(ctx, parent, name)
	})
}

// ZipFS is a read-only FS over the members of a zip archive.
type ZipFS struct {
	omnifs.Base
	parent omnifs.FS
	name   string

	f  omnifs.File
	zr *zip.Reader
}

var _ omnifs.FS = (*ZipFS)(nil)

// New opens the named archive of the parent FS. The archive is read
// immediately to validate the central directory.
func New(ctx context.Context, parent omnifs.FS, name string) (*ZipFS, error) {
	z := &ZipFS{
		Base:   omnifs.NewBase(),
		parent: parent,
		name:   name,
	}
	if err := z.open(ctx); err != nil {
		return nil, err
	}
	return z, nil
}

// reset drops the archive handle so it is re-acquired through the parent FS
// on next use.
func (z *ZipFS) reset() error {
	return z.dropHandle()
}

func (z *ZipFS) dropHandle() error {
	var err error
	if z.f != nil && !z.Forked() {
		err = z.f.Close()
	}
	z.f = nil
	z.zr = nil
	return err
}

func (z *ZipFS) open(ctx context.Context) error {
	st, err := z.parent.Stat(ctx, z.name)
	if err != nil {
		return fmt.Errorf("ziparc: stat archive %s: %w", z.name, err)
	}
	f, err := z.parent.Open(ctx, z.name)
	if err != nil {
		return fmt.Errorf("ziparc: open archive %s: %w", z.name, err)
	}
	zr, err := zip.NewReader(f, st.Size)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("ziparc: read archive %s: %w", z.name, err)
	}
	z.f = f
	z.zr = zr
	return nil
}

func (z *ZipFS) reader(ctx context.Context) (*zip.Reader, error) {
	if err := z.CheckFork(z.reset); err != nil {
		return nil, err
	}
	if z.zr == nil {
		if err := z.open(ctx); err != nil {
			return nil, err
		}
	}
	return z.zr, nil
}

func (z *ZipFS) resolve(name string) string {
	return strings.Trim(path.Join(z.Cwd(), name), "/")
}

// Open opens an archive member for reading. The member is decompressed into
// memory so the returned File supports random access.
func (z *ZipFS) Open(ctx context.Context, name string) (omnifs.File, error) {
	zr, err := z.reader(ctx)
	if err != nil {
		return nil, err
	}
	full := z.resolve(name)
	for _, f := range zr.File {
		if strings.TrimSuffix(f.Name, "/") != full || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return newMemberFile(data), nil
	}
	return nil, fmt.Errorf("ziparc: open %s: %w", name, omnifs.ErrNotFound)
}

// Create is not supported; archives are opened read-only.
func (z *ZipFS) Create(_ context.Context, name string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("ziparc: create %s: %w", name, omnifs.ErrNotSupported)
}

// List returns the entries under prefix. Directory names carry a trailing
// slash.
func (z *ZipFS) List(ctx context.Context, prefix string, opts ...omnifs.ListOption) ([]string, error) {
	stats, err := z.ListStat(ctx, prefix, opts...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(stats))
	for i, st := range stats {
		names[i] = st.Filename
	}
	return names, nil
}

// ListStat returns full descriptors of the entries under prefix. Directories
// that exist only implicitly (no marker entry in the archive) are
// synthesized.
func (z *ZipFS) ListStat(ctx context.Context, prefix string, opts ...omnifs.ListOption) ([]*omnifs.FileStat, error) {
	zr, err := z.reader(ctx)
	if err != nil {
		return nil, err
	}
	o := omnifs.ApplyListOptions(opts)
	base := z.resolve(prefix)
	if base != "" {
		base += "/"
	}

	seen := make(map[string]*omnifs.FileStat)
	var order []string
	add := func(name string, st *omnifs.FileStat) {
		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = st
	}

	for _, f := range zr.File {
		entry := strings.TrimSuffix(f.Name, "/")
		if base != "" {
			if entry+"/" == base || !strings.HasPrefix(entry, base) {
				continue
			}
		}
		rel := strings.TrimPrefix(entry, base)
		if rel == "" {
			continue
		}
		if o.Recursive {
			add(entryName(rel, f.FileInfo().IsDir()), statFromHeader(rel, f))
			continue
		}
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			// A deeper entry implies an intermediate directory.
			dir := rel[:i] + "/"
			if _, ok := seen[dir]; !ok {
				add(dir, &omnifs.FileStat{Filename: dir, Mode: os.ModeDir | 0o755})
			}
			continue
		}
		add(entryName(rel, f.FileInfo().IsDir()), statFromHeader(rel, f))
	}

	sort.Strings(order)
	stats := make([]*omnifs.FileStat, len(order))
	for i, name := range order {
		stats[i] = seen[name]
	}
	return stats, nil
}

// Stat returns the descriptor of an archive member or directory.
func (z *ZipFS) Stat(ctx context.Context, name string) (*omnifs.FileStat, error) {
	zr, err := z.reader(ctx)
	if err != nil {
		return nil, err
	}
	full := z.resolve(name)
	for _, f := range zr.File {
		if strings.TrimSuffix(f.Name, "/") == full {
			return statFromHeader(strings.TrimSuffix(name, "/"), f), nil
		}
	}
	// Implicit directory: any member below the name.
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, full+"/") {
			return &omnifs.FileStat{
				Filename: strings.TrimSuffix(name, "/"),
				Mode:     os.ModeDir | 0o755,
			}, nil
		}
	}
	return nil, fmt.Errorf("ziparc: stat %s: %w", name, omnifs.ErrNotFound)
}

// IsDir reports whether the named path is a directory in the archive.
func (z *ZipFS) IsDir(ctx context.Context, name string) (bool, error) {
	st, err := z.Stat(ctx, name)
	if err != nil {
		return false, err
	}
	return st.IsDir(), nil
}

// Mkdir is not supported; archives are opened read-only.
func (z *ZipFS) Mkdir(_ context.Context, name string, _ os.FileMode) error {
	return fmt.Errorf("ziparc: mkdir %s: %w", name, omnifs.ErrNotSupported)
}

// MakeDirs is not supported; archives are opened read-only.
func (z *ZipFS) MakeDirs(_ context.Context, name string, _ os.FileMode) error {
	return fmt.Errorf("ziparc: makedirs %s: %w", name, omnifs.ErrNotSupported)
}

// Exists reports whether the named member or directory exists.
func (z *ZipFS) Exists(ctx context.Context, name string) (bool, error) {
	_, err := z.Stat(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Rename is not supported; archives are opened read-only.
func (z *ZipFS) Rename(_ context.Context, src, _ string) error {
	return fmt.Errorf("ziparc: rename %s: %w", src, omnifs.ErrNotSupported)
}

// Remove is not supported; archives are opened read-only.
func (z *ZipFS) Remove(_ context.Context, name string, _ bool) error {
	return fmt.Errorf("ziparc: remove %s: %w", name, omnifs.ErrNotSupported)
}

// Glob returns the members matching pattern, relative to the working
// directory.
func (z *ZipFS) Glob(ctx context.Context, pattern string) ([]string, error) {
	zr, err := z.reader(ctx)
	if err != nil {
		return nil, err
	}
	base := z.resolve("")
	if base != "" {
		base += "/"
	}
	var names []string
	for _, f := range zr.File {
		rel := strings.TrimPrefix(strings.TrimSuffix(f.Name, "/"), base)
		if rel == "" || (base != "" && !strings.HasPrefix(f.Name, base)) {
			continue
		}
		ok, err := path.Match(pattern, rel)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, entryName(rel, f.FileInfo().IsDir()))
		}
	}
	sort.Strings(names)
	return names, nil
}

// SubFS returns a ZipFS over the same archive with the working directory
// advanced by relPath. The child re-opens the archive through the parent FS
// rather than sharing this instance's handle.
func (z *ZipFS) SubFS(relPath string) (omnifs.FS, error) {
	base, err := z.Sub(relPath)
	if err != nil {
		return nil, err
	}
	sub := *z
	sub.Base = base
	sub.f = nil
	sub.zr = nil
	return &sub, nil
}

// Close releases the archive handle. The parent FS stays open. Safe to call
// multiple times.
func (z *ZipFS) Close() error {
	return z.dropHandle()
}

func isNotFound(err error) bool {
	return errors.Is(err, omnifs.ErrNotFound)
}

func entryName(name string, isDir bool) string {
	if isDir && !strings.HasSuffix(name, "/") {
		return name + "/"
	}
	return name
}

func statFromHeader(name string, f *zip.File) *omnifs.FileStat {
	info := f.FileInfo()
	if info.IsDir() && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return &omnifs.FileStat{
		Filename:     name,
		LastModified: f.Modified,
		Mode:         info.Mode(),
		Size:         int64(f.UncompressedSize64),
	}
}
