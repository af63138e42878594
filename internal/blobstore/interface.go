package blobstore

import (
	"context"
	"time"
)

// Destination is an allocated, existing directory for new files.
type Destination struct {
	// Dir is the absolute directory on disk.
	Dir string
	// RelDir is Dir relative to the store root, slash separated.
	RelDir string
}

// FileStore is the byte-storage abstraction used by the media assembler.
// Keys are slash separated and relative to the store root.
type FileStore interface {
	Allocate(now time.Time) (Destination, error)
	Exists(ctx context.Context, key string) (bool, error)
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error

	PublicPath(key string) string
	KeyFromPublicPath(publicPath string) (string, error)
}

// Publisher copies stored files to external storage and returns the
// absolute URL clients should use.
type Publisher interface {
	Publish(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Publish back to its key.
	KeyFromURL(url string) (string, bool)
}
