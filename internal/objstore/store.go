package objstore

import (
	"context"
	"io"
	"time"
)

// FileInfo describes one stored object, as produced by listing.
type FileInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListEntry is one item of a lazy listing. A non-nil Err terminates the
// listing; no further entries follow it.
type ListEntry struct {
	Info FileInfo
	Err  error
}

// FileRecord is the unit flowing through the streaming engine: a file name
// and its full contents. Ownership transfers stage to stage.
type FileRecord struct {
	Name     string
	Contents []byte
}

// Store is the object-store boundary consumed by the batch controller and the
// streaming engine. Listing is lazy: entries are delivered on the returned
// channel in store order and the channel is closed when the listing ends.
type Store interface {
	List(ctx context.Context, bucket, prefix string) <-chan ListEntry
	Read(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Write(ctx context.Context, bucket, key string, body io.Reader, size int64) error
}
