// Package storage persists documents under string keys. The document model
// knows nothing about it; the app saves every new snapshot through a Saver.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cli-page/internal/config"
	applog "cli-page/internal/log"
	"cli-page/internal/page"
)

// DefaultKey holds the document edited when no name is given.
const DefaultKey = "editor-rows"

const keySep = ":"

var (
	// ErrInvalidDocument wraps payloads that fail schema or model validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Store loads and saves whole documents. Load reports found=false for a key
// that was never saved. Deleting a missing key is not an error.
type Store interface {
	Load(ctx context.Context, key string) (doc page.Document, found bool, err error)
	Save(ctx context.Context, key string, doc page.Document) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// KeyFor returns the storage key of a named document. The empty name maps
// to DefaultKey.
func KeyFor(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultKey
	}
	return DefaultKey + keySep + name
}

// NameFromKey is the inverse of KeyFor. Keys not produced by KeyFor are
// returned unchanged.
func NameFromKey(key string) string {
	if key == DefaultKey {
		return ""
	}
	if name, ok := strings.CutPrefix(key, DefaultKey+keySep); ok {
		return name
	}
	return key
}

// IsDocumentKey reports whether key was produced by KeyFor.
func IsDocumentKey(key string) bool {
	return key == DefaultKey || (strings.HasPrefix(key, DefaultKey+keySep) && len(key) > len(DefaultKey+keySep))
}

// LoadOrDefault loads key, falling back to a fresh document when nothing
// was saved under it yet.
func LoadOrDefault(ctx context.Context, s Store, key string, ids page.IDSource) (page.Document, error) {
	doc, found, err := s.Load(ctx, key)
	if err != nil {
		return page.Document{}, err
	}
	if !found {
		applog.WithOperation(applog.WithComponent("storage"), "load").Info("no saved document, starting fresh", slog.String("key", key))
		return page.New(ids), nil
	}
	return doc, nil
}

// Open returns the store selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("backend", cfg.Storage.Backend))
	var (
		s   Store
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendFile:
		s, err = OpenFile(cfg.Storage.DataDir)
	case config.BackendSQLite:
		s, err = OpenSQLite(ctx, SQLitePath(cfg.Storage.DataDir))
	case config.BackendPostgres:
		s, err = OpenPostgres(ctx, cfg.ResolveDSN())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
	if err != nil {
		l.Error("open store failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("store ready")
	return s, nil
}

// filterKeys keeps document keys, preserving order.
func filterKeys(keys []string) []string {
	out := keys[:0]
	for _, k := range keys {
		if IsDocumentKey(k) {
			out = append(out, k)
		}
	}
	return out
}
