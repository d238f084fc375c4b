// Package s3 implements the omnifs FS contract on S3 object storage.
//
// Importing the package registers it for the "s3" scheme. The bucket comes
// from the URL authority (s3://bucket/prefix/) unless overridden by the
// "bucket" backend option; the URL path is the key prefix.
//
// Two client flavors are supported. By default the AWS SDK is used with its
// standard credential chain. When an "endpoint" option is present the
// backend talks to the S3-compatible endpoint through minio-go with
// "access_key"/"secret_key" options or AWS environment credentials.
//
// Object storage has no real directories: IsDir and directory Stat results
// are derived from key prefixes, and Mkdir/MakeDirs are no-ops. Glob is not
// supported. The client is built lazily and dropped on fork detection, so a
// forked child dials its own connections.
package s3
