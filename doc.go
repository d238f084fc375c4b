// Package omnifs provides a unified access layer for heterogeneous storage
// systems behind a single FS contract.
//
// A backend is selected from a URL: local disk (file://), HDFS (hdfs://),
// object storage (s3://) and zip archives layered on top of any of them.
// Backends register themselves on import, so callers pull in only the
// backends they need:
//
//	import (
//	    "github.com/hupe1980/omnifs"
//	    _ "github.com/hupe1980/omnifs/local"
//	    _ "github.com/hupe1980/omnifs/s3"
//	    _ "github.com/hupe1980/omnifs/ziparc"
//	)
//
//	fs, err := omnifs.FromURL(ctx, "s3://bucket/prefix/")
//	if err != nil { ... }
//	defer fs.Close()
//
//	f, err := fs.Open(ctx, "dataset/part-00000")
//
// Importing github.com/hupe1980/omnifs/all registers every built-in backend.
//
// A path ending in ".zip" is transparently opened as an archive rooted over
// its parent directory's backend. Custom scheme aliases can be declared in an
// INI file (see SchemeConfig) and resolve to a built-in scheme plus default
// backend options.
//
// All FS instances detect that the owning process has forked and lazily
// recreate process-bound resources (connections, archive handles) instead of
// reusing a parent's. The companion package httpcache applies the same
// discipline to its pooled HTTP client.
package omnifs
