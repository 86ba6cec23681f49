package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// DocumentsTable is the PostgreSQL table documents are stored in.
const DocumentsTable = "guji_documents"

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS ` + DocumentsTable + ` (
	name       TEXT PRIMARY KEY,
	pages      JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL,
	revision   TEXT NOT NULL
)`

// PostgresStore keeps documents in a PostgreSQL table, one row per
// document with its pages as JSONB.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to url (postgres://...), verifies the
// connection and creates the documents table if it does not exist.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	if url == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "postgres url is required")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "open postgres")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping postgres")
	}
	if _, err := db.ExecContext(ctx, createDocumentsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", DocumentsTable, err)
	}
	return &PostgresStore{db: db}, nil
}

// Load reads the named document.
func (s *PostgresStore) Load(ctx context.Context, name string) (*Document, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	var (
		pages []byte
		doc   = NewDocument(name)
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT pages, updated_at, revision FROM `+DocumentsTable+` WHERE name = $1`, name,
	).Scan(&pages, &doc.UpdatedAt, &doc.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrCodeDocumentNotFound, "document %q not found", name)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "load document %q", name)
	}
	if doc.Pages, err = decodePages(pages); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "document %q", name)
	}
	return doc, nil
}

// Save upserts doc.
func (s *PostgresStore) Save(ctx context.Context, doc *Document) error {
	if err := errs.ValidateDocumentName(doc.Name); err != nil {
		return err
	}
	pages, err := encodePages(doc.Pages)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()
	doc.Revision = uuid.NewString()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+DocumentsTable+` (name, pages, updated_at, revision)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			pages = EXCLUDED.pages,
			updated_at = EXCLUDED.updated_at,
			revision = EXCLUDED.revision`,
		doc.Name, pages, doc.UpdatedAt, doc.Revision)
	if err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "save document %q", doc.Name)
	}
	return nil
}

// Delete removes the named document.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+DocumentsTable+` WHERE name = $1`, name); err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "delete document %q", name)
	}
	return nil
}

// List returns all document names, sorted.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM `+DocumentsTable+` ORDER BY name`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list documents")
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan document name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func encodePages(pages map[string]PageRecord) ([]byte, error) {
	if pages == nil {
		pages = map[string]PageRecord{}
	}
	data, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("encode pages: %w", err)
	}
	return data, nil
}

func decodePages(data []byte) (map[string]PageRecord, error) {
	pages := make(map[string]PageRecord)
	if len(data) == 0 {
		return pages, nil
	}
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	return pages, nil
}

var _ Store = (*PostgresStore)(nil)
