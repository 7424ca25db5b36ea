package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	applog "cli-page/internal/log"
	"cli-page/internal/page"
)

// DefaultSaveTimeout bounds a single background write.
const DefaultSaveTimeout = 10 * time.Second

// Saver serializes writes to a Store and drops snapshots that are older
// than one already written for the same key. Callers fire saves from
// concurrent commands; the store only ever moves forward.
type Saver struct {
	store   Store
	timeout time.Duration

	mu      sync.Mutex
	written map[string]uint64
}

func NewSaver(store Store) *Saver {
	return &Saver{store: store, timeout: DefaultSaveTimeout, written: make(map[string]uint64)}
}

// Store returns the underlying store.
func (s *Saver) Store() Store {
	return s.store
}

// Save writes doc as revision rev of key. It reports whether the write
// happened; a stale revision is skipped without error. Failures are logged.
func (s *Saver) Save(ctx context.Context, key string, rev uint64, doc page.Document) (bool, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(
		slog.String("key", key),
		slog.Uint64("rev", rev),
	)
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.written[key]; ok && rev <= last {
		l.Debug("skipping stale snapshot", slog.Uint64("written", last))
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.store.Save(ctx, key, doc); err != nil {
		l.Error("save failed", slog.Any("err", err))
		return false, err
	}
	s.written[key] = rev
	l.Debug("saved", slog.Int("rows", doc.Len()), slog.Duration("took", time.Since(start)))
	return true, nil
}

// Forget drops the revision bookkeeping for key, for example after the
// document was deleted and may be recreated from revision zero.
func (s *Saver) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.written, key)
}
