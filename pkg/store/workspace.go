package store

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/guji/pkg/cache"
	errs "github.com/matzehuels/guji/pkg/errors"
)

// Workspace keeps the most recently used documents in memory over a Store.
// Every change is written through to the store before it returns.
//
// A Workspace is safe for concurrent use. Writes are serialized.
type Workspace struct {
	store  Store
	open   *lru.Cache[string, *Document]
	logger *log.Logger
	mu     sync.Mutex
}

// NewWorkspace returns a workspace holding at most capacity open documents.
func NewWorkspace(s Store, capacity int, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Default()
	}
	w := &Workspace{store: s, logger: logger}
	w.open = cache.NewLRU(capacity, func(name string, _ *Document) {
		w.logger.Debug("closed document", "name", name)
	})
	return w
}

// Open returns a copy of the named document, loading it if it is not open.
// A document that does not exist yet opens empty.
func (w *Workspace) Open(ctx context.Context, name string) (*Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, err := w.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// OpenDocuments returns the names of the documents held in memory, most
// recently used first.
func (w *Workspace) OpenDocuments() []string {
	keys := w.open.Keys()
	slices.Reverse(keys)
	return keys
}

// Page returns a copy of page n of the named document.
func (w *Workspace) Page(ctx context.Context, name string, n int) (PageRecord, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, err := w.load(ctx, name)
	if err != nil {
		return PageRecord{}, false, err
	}
	rec, ok := doc.Page(n)
	return rec.Clone(), ok, nil
}

// SavePage merges the non-empty fields of update into page n and saves the
// document.
func (w *Workspace) SavePage(ctx context.Context, name string, n int, update PageRecord) error {
	return w.EditPage(ctx, name, n, func(rec *PageRecord) error {
		rec.Merge(update)
		return nil
	})
}

// EditPage applies fn to page n and saves the document. If fn returns an
// error nothing is saved.
func (w *Workspace) EditPage(ctx context.Context, name string, n int, fn func(*PageRecord) error) error {
	if n < 0 {
		return errs.New(errs.ErrCodeInvalidIndex, "page %d out of range", n)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.load(ctx, name)
	if err != nil {
		return err
	}
	next := doc.Clone()
	rec, _ := next.Page(n)
	if err := fn(&rec); err != nil {
		return err
	}
	next.SetPage(n, rec)

	if err := w.store.Save(ctx, next); err != nil {
		return err
	}
	w.open.Add(name, next)
	w.logger.Debug("saved page", "document", name, "page", n, "revision", next.Revision)
	return nil
}

// Delete removes the named document from the store and from memory.
func (w *Workspace) Delete(ctx context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open.Remove(name)
	return w.store.Delete(ctx, name)
}

// Close closes the underlying store.
func (w *Workspace) Close() error {
	w.open.Purge()
	return w.store.Close()
}

// load returns the open document, loading it on a miss. Callers hold mu.
func (w *Workspace) load(ctx context.Context, name string) (*Document, error) {
	if doc, ok := w.open.Get(name); ok {
		return doc, nil
	}
	doc, err := w.store.Load(ctx, name)
	if errs.Is(err, errs.ErrCodeDocumentNotFound) {
		doc, err = NewDocument(name), nil
	}
	if err != nil {
		return nil, err
	}
	w.open.Add(name, doc)
	w.logger.Debug("opened document", "name", name, "pages", len(doc.Pages))
	return doc, nil
}
