package driven

import (
	"context"
	"io"
)

// FileStore keeps the original uploaded document bytes on disk.
// Implementations stream writes and enforce a size ceiling, removing
// any partial file when the ceiling is breached
// (domain.ErrFileTooLarge).
type FileStore interface {
	// Save streams r to durable storage under a generated key and
	// returns the key and the number of bytes written.
	Save(ctx context.Context, r io.Reader, originalName string) (key string, size int64, err error)

	// Open returns a reader over a stored file.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored file. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Path returns the absolute filesystem path for a stored key.
	Path(key string) string
}
