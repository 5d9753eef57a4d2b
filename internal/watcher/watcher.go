// Package watcher re-ingests corpus files when they change on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
	"github.com/custodia-labs/lexsearch/internal/logger"
	"github.com/custodia-labs/lexsearch/internal/normalisers"
)

// DefaultDebounce is the quiet period after the last write event before
// a file is processed. Editors and sync tools emit bursts of writes.
const DefaultDebounce = 500 * time.Millisecond

// watchedExtensions are the corpus file types picked up from disk.
var watchedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Watcher monitors a corpus directory and re-ingests documents whose
// content actually changed. Unchanged rewrites (touch, re-save) are
// classified by the change detector and skipped.
type Watcher struct {
	dir      string
	detector driving.ChangeDetector
	ingestor driving.Ingestor
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the per-file quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the given corpus directory.
func New(dir string, detector driving.ChangeDetector, ingestor driving.Ingestor, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		detector: detector,
		ingestor: ingestor,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run watches the corpus directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	logger.Info("Watching %s for corpus changes", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !shouldProcess(event) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// shouldProcess reports whether an event warrants re-ingestion: a
// create or write on a corpus file type. Removals and permission
// changes are ignored.
func shouldProcess(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	return watchedExtensions[strings.ToLower(filepath.Ext(event.Name))]
}

// documentID derives the document identifier from the file name.
func documentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// schedule debounces processing of one file: each new event resets the
// timer so the file is read only after writes settle.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		w.process(ctx, path)
	})
}

// process runs change detection on one file and re-ingests it when the
// content differs from the stored snapshot.
func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s failed: %v", path, err)
		return
	}

	docID := documentID(path)
	text := normalisers.ForPath(path).Normalise(data)
	results := w.detector.DetectBatch(ctx, []driving.BatchItem{
		{DocumentID: docID, Text: text},
	})
	if len(results) == 0 {
		return
	}

	result := results[0]
	if result.Kind == domain.ChangeUnchanged {
		logger.Debug("Document %s unchanged, skipping re-ingestion", docID)
		return
	}

	logger.Info("Document %s %s (similarity %.3f), re-ingesting",
		docID, result.Kind, result.Similarity)

	if _, err := w.ingestor.Ingest(ctx, docID, text); err != nil {
		logger.Error("Re-ingestion of %s failed: %v", docID, err)
	}
}
