package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-labs/consulta/internal/core/domain"
)

func TestNewKey(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s, err := New(t.TempDir(), withClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	key := s.NewKey("edital_2024.pdf")

	re := regexp.MustCompile(`^20240315_[0-9a-f]{8}_edital_2024\.pdf$`)
	assert.Regexp(t, re, key)
}

func TestOriginalName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"20240315_ab12cd34_edital_2024.pdf", "edital_2024.pdf"},
		{"20240315_ab12cd34_file.pdf", "file.pdf"},
		{"plainname.pdf", "plainname.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OriginalName(tt.key), "key %s", tt.key)
	}
}

func TestSave(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	content := strings.Repeat("x", 20_000)
	key, size, err := s.Save(context.Background(), strings.NewReader(content), "doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), size)

	data, err := os.ReadFile(s.Path(key))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestSave_TooLarge(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, WithMaxFileSize(1000))
	require.NoError(t, err)

	_, _, err = s.Save(context.Background(), strings.NewReader(strings.Repeat("x", 2000)), "big.pdf")
	assert.True(t, errors.Is(err, domain.ErrFileTooLarge))

	// The partial file must be gone.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestOpen_NotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "missing.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	key, _, err := s.Save(context.Background(), strings.NewReader("data"), "doc.pdf")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), key))
	_, statErr := os.Stat(filepath.Join(s.Dir(), key))
	assert.True(t, os.IsNotExist(statErr))

	// Deleting again is not an error.
	assert.NoError(t, s.Delete(context.Background(), key))
}
