package storage

import (
	"context"
	"io"
)

// DocumentSource reads raw documents for bulk ingestion. Keys are
// bucket-relative object paths.
type DocumentSource interface {
	// ListKeys returns the object keys under a prefix, in lexical order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Fetch opens an object for reading. The caller closes the reader.
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)
}
