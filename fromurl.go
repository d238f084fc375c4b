package omnifs

import (
	"context"
	"fmt"
	"net/url"
	"path"
)

// DefaultScheme is assumed when a URL carries no scheme.
const DefaultScheme = "file"

// FromURL constructs the FS matching a URL.
//
// The URL path is a directory for file systems and a key prefix for object
// storage. A path ending in a registered archive suffix is transparently
// opened as an archive layered over its parent directory's backend, unless
// an explicit non-archive force type disables the detection. Unknown schemes
// are resolved through the custom scheme configuration.
//
// The returned FS must be closed by the caller. Note that an FS wrapping an
// archive does not own its parent backend; see the ziparc package.
func FromURL(ctx context.Context, rawurl string, opts ...Option) (FS, error) {
	o := &options{logger: NoopLogger()}
	for _, fn := range opts {
		fn(o)
	}

	parsed, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawurl, err)
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}

	// An explicit force type must agree with the parsed scheme, unless it
	// names an archive wrapper, which layers on top of any scheme.
	archive, forceArchive := archiveByName(o.forceType)
	if o.forceType != "" && !forceArchive && o.forceType != scheme {
		err := &SchemeMismatchError{Forced: o.forceType, Parsed: scheme}
		o.logger.LogResolve(ctx, rawurl, scheme, err)
		return nil, err
	}

	var fs FS
	switch {
	case forceArchive:
		fs, err = openArchive(ctx, scheme, parsed, archive, o)

	case o.forceType == "":
		if af, ok := archiveBySuffix(parsed.Path); ok {
			fs, err = openArchive(ctx, scheme, parsed, af, o)
		} else {
			fs, err = fromScheme(ctx, scheme, parsed.Host, parsed.Path, o)
		}

	default:
		// Explicit non-archive force type wins and disables suffix
		// sniffing.
		fs, err = fromScheme(ctx, scheme, parsed.Host, parsed.Path, o)
	}

	o.logger.LogResolve(ctx, rawurl, scheme, err)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// OpenURL resolves the URL's directory part and opens its leaf file for
// reading. Closing the returned File also closes the backing FS.
func OpenURL(ctx context.Context, rawurl string, opts ...Option) (File, error) {
	dirname, filename := path.Split(rawurl)
	fs, err := FromURL(ctx, dirname, opts...)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(ctx, filename)
	if err != nil {
		_ = fs.Close()
		return nil, err
	}
	return &urlFile{File: f, fs: fs}, nil
}

// urlFile ties the lifetime of the backing FS to the opened file.
type urlFile struct {
	File
	fs FS
}

func (f *urlFile) Close() error {
	err := f.File.Close()
	if cerr := f.fs.Close(); err == nil {
		err = cerr
	}
	return err
}

func openArchive(ctx context.Context, scheme string, parsed *url.URL, af ArchiveFactory, o *options) (FS, error) {
	if o.create {
		return nil, ErrCreateNotSupported
	}
	dirname, filename := path.Split(parsed.Path)
	parent, err := fromScheme(ctx, scheme, parsed.Host, dirname, o)
	if err != nil {
		return nil, err
	}
	fs, err := af(ctx, parent, filename)
	if err != nil {
		_ = parent.Close()
		return nil, err
	}
	return fs, nil
}

func fromScheme(ctx context.Context, scheme, netloc, dirname string, o *options) (FS, error) {
	// Copy so custom-scheme defaults never leak between calls.
	backendOpts := make(map[string]string, len(o.backend))
	for k, v := range o.backend {
		backendOpts[k] = v
	}

	if !Registered(scheme) {
		cfg := o.config
		if cfg == nil {
			cfg = DefaultSchemeConfig()
		}
		real, defaults, ok := cfg.Lookup(scheme)
		if !ok {
			return nil, &UnknownSchemeError{Scheme: scheme}
		}
		if !Registered(real) {
			return nil, &UnknownSchemeError{Scheme: real}
		}
		for k, v := range defaults {
			// Don't overwrite caller-supplied values.
			if _, exists := backendOpts[k]; !exists {
				backendOpts[k] = v
			}
		}
		scheme = real
	}

	factory, ok := schemeFactory(scheme)
	if !ok {
		return nil, &UnknownSchemeError{Scheme: scheme}
	}
	return factory(ctx, Params{
		Netloc:  netloc,
		Path:    dirname,
		Create:  o.create,
		Options: backendOpts,
		Logger:  o.logger,
	})
}
