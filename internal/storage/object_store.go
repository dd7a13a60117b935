package storage

import (
	"context"
	"io"
)

// ObjectStore is where a run writes its outputs: the metadata file and the
// image assets it references. Keys are relative to the store's root.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	Location(key string) string
}
