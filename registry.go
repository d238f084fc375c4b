package omnifs

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Params carries the parsed URL parts and merged options handed to a backend
// factory by FromURL.
type Params struct {
	// Netloc is the URL authority: bucket for object storage, namenode
	// address for HDFS, empty for local files.
	Netloc string

	// Path is the URL path: a directory root for filesystems, a key prefix
	// for object storage.
	Path string

	// Create requests backend-side creation of the target path if absent.
	Create bool

	// Options are backend-specific string options, caller-supplied values
	// merged with custom-scheme defaults (caller wins).
	Options map[string]string

	// Logger is never nil.
	Logger *Logger
}

// Option returns the named backend option and whether it was set.
func (p Params) Option(key string) (string, bool) {
	v, ok := p.Options[key]
	return v, ok
}

// Factory constructs a backend FS from resolved URL parts.
type Factory func(ctx context.Context, p Params) (FS, error)

// ArchiveFactory opens the named file of the parent FS as an archive and
// returns an FS over its contents.
type ArchiveFactory func(ctx context.Context, parent FS, name string) (FS, error)

type registryState struct {
	mu       sync.RWMutex
	schemes  map[string]Factory
	archives map[string]archiveEntry // keyed by force-type name
}

type archiveEntry struct {
	suffix  string
	factory ArchiveFactory
}

var registry = &registryState{
	schemes:  make(map[string]Factory),
	archives: make(map[string]archiveEntry),
}

// Register makes a backend available under the given URL scheme. Backends
// call this from an init function so that importing the backend package is
// all a caller needs to do.
func Register(scheme string, f Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.schemes[scheme] = f
}

// RegisterArchive makes an archive wrapper available under a force-type name
// (e.g. "zip") and a path suffix (e.g. ".zip") used for transparent
// detection.
func RegisterArchive(name, suffix string, f ArchiveFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.archives[name] = archiveEntry{suffix: suffix, factory: f}
}

// Registered reports whether a backend is registered for the scheme.
func Registered(scheme string) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, ok := registry.schemes[scheme]
	return ok
}

// Schemes returns the registered backend schemes, sorted.
func Schemes() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]string, 0, len(registry.schemes))
	for s := range registry.schemes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func schemeFactory(scheme string) (Factory, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	f, ok := registry.schemes[scheme]
	return f, ok
}

func archiveByName(name string) (ArchiveFactory, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	e, ok := registry.archives[name]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

func archiveBySuffix(path string) (ArchiveFactory, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, e := range registry.archives {
		if strings.HasSuffix(path, e.suffix) {
			return e.factory, true
		}
	}
	return nil, false
}
