package storage

import (
	"context"
	"fmt"

	"cli-page/internal/db"
	"cli-page/internal/page"
)

// PostgresStore keeps documents in the editor_documents table.
type PostgresStore struct {
	db *db.DB
}

// OpenPostgres connects to dsn and ensures the documents table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	conn, err := db.ConnectURI(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := conn.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return &PostgresStore{db: conn}, nil
}

// Describe returns a password-free connection string for the status bar.
func (s *PostgresStore) Describe() string {
	return s.db.ConnInfo()
}

func (s *PostgresStore) Load(ctx context.Context, key string) (page.Document, bool, error) {
	body, found, err := s.db.LoadDocument(ctx, key)
	if err != nil || !found {
		return page.Document{}, false, err
	}
	doc, err := Decode(body)
	if err != nil {
		return page.Document{}, false, fmt.Errorf("load %q: %w", key, err)
	}
	return doc, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, doc page.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return s.db.SaveDocument(ctx, key, data)
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	infos, err := s.db.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Key)
	}
	return filterKeys(keys), nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	return s.db.DeleteDocument(ctx, key)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
