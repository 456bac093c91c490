// Package uploads stores original uploaded documents on disk under
// generated keys.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driven"
	"github.com/consulta-labs/consulta/internal/logger"
)

// DefaultMaxFileSize is the upload size ceiling (50 MiB).
const DefaultMaxFileSize = 50 << 20

// copyChunkSize is the streamed write granularity.
const copyChunkSize = 8 << 10

// Store writes uploads to a directory with a size ceiling. Writes are
// streamed; a file that breaches the ceiling is removed before the
// error is returned.
type Store struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithMaxFileSize sets the upload size ceiling in bytes.
func WithMaxFileSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// withClock overrides the clock used for key generation. Test hook.
func withClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an upload store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	s := &Store{
		dir:     dir,
		maxSize: DefaultMaxFileSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Interface compliance check.
var _ driven.FileStore = (*Store)(nil)

// NewKey generates a storage key for an original filename. The date
// prefix and random segment keep keys unique while the original name
// stays recoverable.
func (s *Store) NewKey(originalName string) string {
	date := s.now().Format("20060102")
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s", date, suffix, originalName)
}

// OriginalName recovers the uploaded filename from a storage key.
// Keys without the expected two prefix segments are returned as is.
func OriginalName(key string) string {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return key
}

// Save streams r to disk under a fresh key, enforcing the size ceiling.
// On breach the partial file is deleted and domain.ErrFileTooLarge
// returned.
func (s *Store) Save(ctx context.Context, r io.Reader, originalName string) (string, int64, error) {
	key := s.NewKey(originalName)
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating upload file: %w", err)
	}

	var written int64
	buf := make([]byte, copyChunkSize)

	for {
		select {
		case <-ctx.Done():
			f.Close()
			os.Remove(path)
			return "", 0, ctx.Err()
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > s.maxSize {
				f.Close()
				os.Remove(path)
				logger.Warn("upload %s exceeded %d bytes, removed", originalName, s.maxSize)
				return "", 0, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.maxSize)
			}
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				os.Remove(path)
				return "", 0, fmt.Errorf("writing upload: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(path)
			return "", 0, fmt.Errorf("reading upload: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("closing upload: %w", err)
	}

	logger.Debug("stored upload %s (%d bytes)", key, written)
	return key, written, nil
}

// Open returns a reader over a stored file.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("opening stored file: %w", err)
	}
	return f, nil
}

// Delete removes a stored file. A missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting stored file: %w", err)
	}
	return nil
}

// Path returns the absolute path of a stored key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}
