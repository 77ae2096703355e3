package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrDirNotFound means the configured upload directory does not exist.
	ErrDirNotFound = errors.New("upload directory does not exist")
	// ErrPermission means the store may not write to its destination.
	ErrPermission = errors.New("permission denied")
)

// BlobStore persists uploaded media and hands back an absolute storage
// path that submission payloads reference later.
type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, storagePath string) error
}

// StampName prefixes a filename with an ISO 8601 timestamp, colons
// replaced so the result is valid on every filesystem. The timestamp
// keeps repeated uploads of the same file from colliding.
func StampName(now time.Time, name string) string {
	ts := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	return ts + "_" + name
}
