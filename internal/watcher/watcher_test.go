package watcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-labs/consulta/internal/core/domain"
	"github.com/consulta-labs/consulta/internal/core/ports/driving"
	"github.com/consulta-labs/consulta/internal/logger"
)

// recordingIngestor records ingested filenames.
type recordingIngestor struct {
	mu    sync.Mutex
	names []string
	err   error
}

var _ driving.Ingestor = (*recordingIngestor)(nil)

func (r *recordingIngestor) Ingest(_ context.Context, reader io.Reader, filename string) (*domain.IngestResult, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	r.names = append(r.names, filename)
	r.mu.Unlock()
	return &domain.IngestResult{OriginalName: filename, ChunksIndexed: 1}, nil
}

func (r *recordingIngestor) Delete(_ context.Context, _ string) error { return nil }

func (r *recordingIngestor) List(_ context.Context) ([]domain.Document, error) { return nil, nil }

func (r *recordingIngestor) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes and reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRun_IngestsDroppedPDF(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}
	w, err := New(dir, ingestor, WithSettleDelay(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := filepath.Join(dir, "edital.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0644))

	waitFor(t, func() bool { return len(ingestor.ingested()) == 1 })
	assert.Equal(t, []string{"edital.pdf"}, ingestor.ingested())

	// Ingested files leave the inbox.
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	})

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_SweepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regimento.pdf"), []byte("%PDF"), 0644))

	ingestor := &recordingIngestor{}
	w, err := New(dir, ingestor, WithSettleDelay(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	waitFor(t, func() bool { return len(ingestor.ingested()) == 1 })
	assert.Equal(t, []string{"regimento.pdf"}, ingestor.ingested())
}

func TestRun_IgnoresNonPDFAndHidden(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{}
	w, err := New(dir, ingestor, WithSettleDelay(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".draft.pdf"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "valido.pdf"), []byte("%PDF"), 0644))

	waitFor(t, func() bool { return len(ingestor.ingested()) == 1 })
	assert.Equal(t, []string{"valido.pdf"}, ingestor.ingested())
}

func TestRun_FailedIngestLeavesFile(t *testing.T) {
	dir := t.TempDir()
	ingestor := &recordingIngestor{err: errors.New("extraction failed")}
	w, err := New(dir, ingestor, WithSettleDelay(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := filepath.Join(dir, "corrompido.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	// Give the watcher time to pick the file up and fail.
	time.Sleep(200 * time.Millisecond)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
	assert.Empty(t, ingestor.ingested())
}

func TestHandleEvent_AfterRunExitsDropsInsteadOfBlocking(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, &recordingIngestor{}, WithSettleDelay(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Run(ctx), context.Canceled)

	buf := &syncBuffer{}
	logger.SetOutput(buf)
	defer logger.SetOutput(os.Stderr)

	// Fill the queue so a plain send would block forever.
	for i := 0; i < cap(w.ready); i++ {
		w.ready <- "queued.pdf"
	}

	path := filepath.Join(dir, "tarde.pdf")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

	waitFor(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.timers) == 0
	})
	waitFor(t, func() bool { return strings.Contains(buf.String(), "tarde.pdf") })
}

func TestWithKeepFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.pdf"), []byte("%PDF"), 0644))

	ingestor := &recordingIngestor{}
	w, err := New(dir, ingestor, WithSettleDelay(20*time.Millisecond), WithKeepFiles())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	waitFor(t, func() bool { return len(ingestor.ingested()) == 1 })

	_, statErr := os.Stat(filepath.Join(dir, "manual.pdf"))
	assert.NoError(t, statErr)
}
