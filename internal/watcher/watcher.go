// Package watcher ingests PDF files dropped into an inbox directory.
// It is the unattended counterpart of the ingest command: anything
// that appears in the watched directory is fed through the same
// pipeline, and removed from the inbox once indexed.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/consulta-labs/consulta/internal/core/ports/driving"
	"github.com/consulta-labs/consulta/internal/logger"
)

// DefaultSettleDelay is how long a file must stay quiet after its last
// write event before ingestion starts. Copies into the inbox arrive as
// a burst of write events; the delay lets the burst finish.
const DefaultSettleDelay = 500 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettleDelay overrides the quiet period before ingestion.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithKeepFiles leaves ingested files in the inbox instead of
// removing them.
func WithKeepFiles() Option {
	return func(w *Watcher) {
		w.keep = true
	}
}

// Watcher watches one directory and ingests PDFs dropped into it.
type Watcher struct {
	dir      string
	ingestor driving.Ingestor
	settle   time.Duration
	keep     bool

	mu     sync.Mutex
	timers map[string]*time.Timer

	ready chan string

	// done is closed when Run exits so late-firing timers do not
	// block on ready forever.
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher over dir. The directory is created when it
// does not exist.
func New(dir string, ingestor driving.Ingestor, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating inbox directory: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		ingestor: ingestor,
		settle:   DefaultSettleDelay,
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the inbox until the context is cancelled. Files already
// present when Run starts are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopOnce.Do(func() { close(w.done) })

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	logger.Info("watching %s for PDF files", w.dir)
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-w.ready:
			w.process(ctx, path)

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// handleEvent schedules ingestion for relevant events. Repeated writes
// to the same file reset its timer so ingestion starts only after the
// file has settled.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !isPDF(event.Name) || isHidden(filepath.Base(event.Name)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := event.Name
	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
			logger.Warn("watcher stopped, leaving %s in the inbox", path)
		}
	})
}

// sweep ingests PDFs that were already in the inbox at startup.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("reading inbox: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isPDF(entry.Name()) || isHidden(entry.Name()) {
			continue
		}
		w.process(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

// process ingests one file and removes it from the inbox on success.
// Failed files stay in place so they can be retried after the cause
// is fixed.
func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("opening %s: %v", path, err)
		return
	}
	defer f.Close()

	result, err := w.ingestor.Ingest(ctx, f, filepath.Base(path))
	if err != nil {
		logger.Warn("ingesting %s: %v", path, err)
		return
	}
	logger.Info("ingested %s: %d chunks indexed", result.OriginalName, result.ChunksIndexed)

	if w.keep {
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("removing %s from inbox: %v", path, err)
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
