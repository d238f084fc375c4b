package omnifs

import (
	"context"
	"io"
	"os"
	"path"
	"strings"
)

// File is a read handle returned by FS.Open.
//
// Every backend supports random access: object-storage files translate ReadAt
// into ranged requests, archive members are materialized on open. Close must
// be called when done.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

// FS is the storage access contract shared by all backends.
//
// Paths handed to FS methods are interpreted relative to the instance's
// virtual working directory (see SubFS). Operations that touch backend
// resources first run the fork check; after a detected fork the backend
// recreates its process-bound resources before proceeding.
//
// Close is idempotent and must be called on every FS obtained from FromURL
// or SubFS.
type FS interface {
	// Open opens the named file for reading.
	Open(ctx context.Context, name string) (File, error)

	// Create creates or truncates the named file for writing.
	Create(ctx context.Context, name string) (io.WriteCloser, error)

	// List returns the names of files and directories under prefix.
	// Directory names carry a trailing slash. An empty prefix lists the
	// working directory.
	List(ctx context.Context, prefix string, opts ...ListOption) ([]string, error)

	// ListStat is List returning full descriptors instead of names.
	ListStat(ctx context.Context, prefix string, opts ...ListOption) ([]*FileStat, error)

	// Stat returns the descriptor of the named file or directory.
	Stat(ctx context.Context, name string) (*FileStat, error)

	// IsDir reports whether the named path is an existing directory.
	IsDir(ctx context.Context, name string) (bool, error)

	// Mkdir creates a single directory with the given permission.
	Mkdir(ctx context.Context, name string, perm os.FileMode) error

	// MakeDirs creates the named directory along with any missing parents.
	// Existing directories are not an error.
	MakeDirs(ctx context.Context, name string, perm os.FileMode) error

	// Exists reports whether the path exists. Symlinks are followed, so a
	// dangling link reports false.
	Exists(ctx context.Context, name string) (bool, error)

	// Rename renames src to dst.
	Rename(ctx context.Context, src, dst string) error

	// Remove removes a file, or a directory when recursive is set.
	Remove(ctx context.Context, name string, recursive bool) error

	// Glob returns the names matching pattern. Backends without glob
	// support return ErrNotSupported.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// SubFS returns a new FS sharing backend identity with the working
	// directory advanced by relPath. relPath must be relative and must not
	// escape the subtree; the returned FS holds fresh per-instance
	// resource state, never the parent's live handles.
	SubFS(relPath string) (FS, error)

	// Close releases backend resources. Safe to call multiple times.
	Close() error
}

// ListOptions controls List and ListStat.
type ListOptions struct {
	// Recursive lists the whole subtree instead of immediate children.
	Recursive bool
}

// ListOption configures a List or ListStat call.
type ListOption func(*ListOptions)

// Recursively lists the whole subtree under the prefix.
func Recursively() ListOption {
	return func(o *ListOptions) {
		o.Recursive = true
	}
}

// ApplyListOptions folds opts into a ListOptions value. Exported for backend
// implementations.
func ApplyListOptions(opts []ListOption) ListOptions {
	var o ListOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Base carries the per-instance state every backend embeds: the virtual
// working directory and the identifier of the process that created the
// instance.
//
// Backends call CheckFork at the top of every operation. A mismatch between
// the stored and the current process identifier means the process forked;
// the backend's reset hook then drops process-bound resources (connections,
// open handles) so they are lazily re-acquired in the child, and the stored
// identifier is updated. This is silent self-healing: a reset hook that
// cannot safely recreate its resource returns ErrForked instead.
type Base struct {
	pid int
	cwd string
}

// NewBase returns a Base owned by the current process with an empty working
// directory.
func NewBase() Base {
	return Base{pid: os.Getpid()}
}

// Cwd returns the virtual working directory. It is always relative and never
// contains parent-directory segments.
func (b *Base) Cwd() string {
	return b.cwd
}

// Forked reports whether the current process differs from the one that
// created this instance.
func (b *Base) Forked() bool {
	return b.pid != os.Getpid()
}

// CheckFork runs reset and re-captures the process identifier when a fork is
// detected. It is a no-op in the owning process.
func (b *Base) CheckFork(reset func() error) error {
	if !b.Forked() {
		return nil
	}
	if reset != nil {
		if err := reset(); err != nil {
			return err
		}
	}
	b.pid = os.Getpid()
	return nil
}

// Sub returns a copy of b owned by the current process with relPath joined
// onto the working directory. The path is validated with SubPath.
func (b *Base) Sub(relPath string) (Base, error) {
	joined, err := SubPath(b.cwd, relPath)
	if err != nil {
		return Base{}, err
	}
	return Base{pid: os.Getpid(), cwd: joined}, nil
}

// SubPath validates relPath for SubFS and joins it onto cwd. Absolute paths
// and paths containing a parent-directory segment are rejected with
// *InvalidPathError.
func SubPath(cwd, relPath string) (string, error) {
	if strings.HasPrefix(relPath, "/") {
		return "", &InvalidPathError{Path: relPath, Reason: "absolute path is not supported"}
	}
	for _, seg := range strings.Split(relPath, "/") {
		if seg == ".." {
			return "", &InvalidPathError{Path: relPath, Reason: "only subtree is supported"}
		}
	}
	return path.Join(cwd, relPath), nil
}
