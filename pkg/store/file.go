package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	errs "github.com/matzehuels/guji/pkg/errors"
)

const documentExt = ".json"

// FileStore keeps each document in <dir>/<name>.json.
//
// A file that cannot be decoded is removed and the document is treated as
// empty, so one damaged file never blocks a workspace.
type FileStore struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

// NewFileStore creates the directory if needed. A nil logger uses the
// default logger.
func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads the named document.
func (s *FileStore) Load(ctx context.Context, name string) (*Document, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.New(errs.ErrCodeDocumentNotFound, "document %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc, err := decodeDocument(name, data)
	if err != nil {
		s.logger.Warn("removing unreadable document", "name", name, "path", path, "err", err)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("remove unreadable document: %w", rmErr)
		}
		return NewDocument(name), nil
	}
	return doc, nil
}

// Save writes doc atomically.
func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	path, err := s.path(doc.Name)
	if err != nil {
		return err
	}
	if doc.Pages == nil {
		doc.Pages = make(map[string]PageRecord)
	}
	doc.UpdatedAt = s.now().UTC()
	doc.Revision = uuid.NewString()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".doc-*")
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save document: %w", err)
	}
	s.logger.Debug("saved document", "name", doc.Name, "pages", len(doc.Pages), "revision", doc.Revision)
	return nil
}

// Delete removes the named document.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns the names of all stored documents.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, documentExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, documentExt))
	}
	slices.Sort(names)
	return names, nil
}

// Close does nothing.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(name string) (string, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+documentExt), nil
}

// decodeDocument accepts both the current envelope and the bare page map
// ({"0": {...}, "1": {...}}) written by the desktop application.
func decodeDocument(name string, data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	doc := NewDocument(name)
	if _, ok := fields["pages"]; ok {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, err
		}
		doc.Name = name
		if doc.Pages == nil {
			doc.Pages = make(map[string]PageRecord)
		}
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc.Pages); err != nil {
		return nil, err
	}
	return doc, nil
}

var _ Store = (*FileStore)(nil)
