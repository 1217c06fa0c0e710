// Package memory is an in-process library store, used by tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
)

type key struct {
	kind library.StoreKind
	typ  content.Type
}

// Store keeps collections in memory.
type Store struct {
	mu          sync.Mutex
	collections map[key]*Collection
	order       []key
}

var _ library.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{collections: map[key]*Collection{}}
}

// Collection returns the collection for kind and t, creating it if absent.
func (s *Store) Collection(ctx context.Context, kind library.StoreKind, t content.Type) (library.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{kind, t}
	if c, ok := s.collections[k]; ok {
		return c, nil
	}
	c := &Collection{kind: kind, typ: t, byID: map[string]int{}}
	s.collections[k] = c
	s.order = append(s.order, k)
	return c, nil
}

// Find returns an existing collection without creating one.
func (s *Store) Find(ctx context.Context, kind library.StoreKind, t content.Type) (library.Collection, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[key{kind, t}]
	if !ok {
		return nil, false, nil
	}
	return c, true, nil
}

// Collections lists collections in creation order.
func (s *Store) Collections(ctx context.Context) ([]library.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]library.Collection, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.collections[k])
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Collection is an ordered in-memory record set.
type Collection struct {
	kind library.StoreKind
	typ  content.Type

	mu      sync.RWMutex
	records []library.Record
	byID    map[string]int
}

// Kind returns the store kind.
func (c *Collection) Kind() library.StoreKind { return c.kind }

// Type returns the content type held.
func (c *Collection) Type() content.Type { return c.typ }

// Label returns the collection label.
func (c *Collection) Label() string { return library.Label(c.kind, c.typ) }

// Index returns every record's id, name and import id in creation order.
func (c *Collection) Index(ctx context.Context) ([]library.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]library.IndexEntry, len(c.records))
	for i := range c.records {
		r := &c.records[i]
		out[i] = library.IndexEntry{ID: r.ID, Name: r.Name, ImportID: r.ImportID()}
	}
	return out, nil
}

// Get returns a copy of the record with id.
func (c *Collection) Get(ctx context.Context, id string) (*library.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError(c.Label(), id)
	}
	rec := clone(c.records[i])
	return &rec, nil
}

// Create stores rec under a new id and returns it. An id already set on rec
// is kept when unused.
func (c *Collection) Create(ctx context.Context, rec library.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, dup := c.byID[rec.ID]; dup {
		return "", errors.WrapStore("create", c.Label(), rec.ID, errors.ErrAlreadyExists)
	}
	if rec.Type == "" {
		rec.Type = c.typ
	}
	c.byID[rec.ID] = len(c.records)
	c.records = append(c.records, clone(rec))
	return rec.ID, nil
}

// Update applies patch to the record with id.
func (c *Collection) Update(ctx context.Context, id string, patch library.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byID[id]
	if !ok {
		return errors.WrapStore("update", c.Label(), id, errors.NewNotFoundError(c.Label(), id))
	}
	rec := clone(c.records[i])
	if err := library.ApplyPatch(&rec, patch); err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}
	c.records[i] = rec
	return nil
}

// FindByImportID returns the first record carrying importID.
func (c *Collection) FindByImportID(ctx context.Context, importID string) (*library.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if importID == "" {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.records {
		if c.records[i].ImportID() == importID {
			rec := clone(c.records[i])
			return &rec, true, nil
		}
	}
	return nil, false, nil
}

// Records returns copies of every record in creation order.
func (c *Collection) Records(ctx context.Context) ([]library.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]library.Record, len(c.records))
	for i := range c.records {
		out[i] = clone(c.records[i])
	}
	return out, nil
}

func clone(r library.Record) library.Record {
	r.Flags = r.Flags.Clone()
	r.Data = r.Data.Clone()
	return r
}
