// Package sqlite is a library.Store backed by a SQLite file.
//
// Record flags and data are kept as JSON documents; name and import id are
// lifted into indexed columns for matching.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/daezeri/ffgimport/pkg/constants"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/sqlite/migrations"
	"github.com/daezeri/ffgimport/pkg/logging"
)

// Store persists a content library in SQLite.
type Store struct {
	db   *sql.DB
	path string

	mu          sync.Mutex
	collections map[string]*Collection
}

var _ library.Store = (*Store)(nil)

// Open opens or creates the library at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewValidationError("path", path, "storage path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		clean, constants.StoreBusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapStore("open", clean, "", err)
	}
	// One connection serializes writers from concurrent import tasks.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapStore("open", clean, "", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, errors.WrapStore("migrate", clean, "", err)
	}

	logging.FromContext(ctx).Debug().Str("path", clean).Msg("Opened library")
	return &Store{db: db, path: clean, collections: map[string]*Collection{}}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Collection returns the collection for kind and t, creating it if absent.
func (s *Store) Collection(ctx context.Context, kind library.StoreKind, t content.Type) (library.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cacheKey := string(kind) + "/" + string(t)
	if c, ok := s.collections[cacheKey]; ok {
		return c, nil
	}

	label := library.Label(kind, t)
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM collections WHERE kind = ? AND content_type = ?`, string(kind), string(t)).Scan(&id)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO collections (id, kind, content_type, label, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, string(kind), string(t), label, time.Now().UTC().UnixMilli()); err != nil {
			return nil, errors.WrapStore("create", label, "", err)
		}
		logging.FromContext(ctx).Info().Str("collection", label).Msg("Created collection")
	case err != nil:
		return nil, errors.WrapStore("load", label, "", err)
	}

	c := &Collection{db: s.db, id: id, kind: kind, typ: t}
	s.collections[cacheKey] = c
	return c, nil
}

// Find returns an existing collection without creating one.
func (s *Store) Find(ctx context.Context, kind library.StoreKind, t content.Type) (library.Collection, bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM collections WHERE kind = ? AND content_type = ?`, string(kind), string(t)).Scan(&count)
	if err != nil {
		return nil, false, errors.WrapStore("load", library.Label(kind, t), "", err)
	}
	if count == 0 {
		return nil, false, nil
	}
	c, err := s.Collection(ctx, kind, t)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// Collections lists existing collections in creation order.
func (s *Store) Collections(ctx context.Context) ([]library.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, content_type FROM collections ORDER BY created_at, rowid`)
	if err != nil {
		return nil, errors.WrapStore("list", "collections", "", err)
	}
	type pair struct {
		kind library.StoreKind
		typ  content.Type
	}
	var pairs []pair
	for rows.Next() {
		var kind, typ string
		if err := rows.Scan(&kind, &typ); err != nil {
			_ = rows.Close()
			return nil, errors.WrapStore("list", "collections", "", err)
		}
		pairs = append(pairs, pair{library.StoreKind(kind), content.Type(typ)})
	}
	if err := rows.Close(); err != nil {
		return nil, errors.WrapStore("list", "collections", "", err)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("list", "collections", "", err)
	}

	out := make([]library.Collection, 0, len(pairs))
	for _, p := range pairs {
		c, err := s.Collection(ctx, p.kind, p.typ)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Collection is one collection row and its records.
type Collection struct {
	db   *sql.DB
	id   string
	kind library.StoreKind
	typ  content.Type
}

// Kind returns the store kind.
func (c *Collection) Kind() library.StoreKind { return c.kind }

// Type returns the content type held.
func (c *Collection) Type() content.Type { return c.typ }

// Label returns the collection label.
func (c *Collection) Label() string { return library.Label(c.kind, c.typ) }

// Index returns id, name and import id of every record in creation order.
func (c *Collection) Index(ctx context.Context) ([]library.IndexEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, import_id FROM records WHERE collection_id = ? ORDER BY seq`, c.id)
	if err != nil {
		return nil, errors.WrapStore("index", c.Label(), "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []library.IndexEntry
	for rows.Next() {
		var e library.IndexEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.ImportID); err != nil {
			return nil, errors.WrapStore("index", c.Label(), "", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("index", c.Label(), "", err)
	}
	return out, nil
}

const recordColumns = `id, name, type, img, flags, data`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*library.Record, error) {
	var rec library.Record
	var typ, flags, data string
	if err := row.Scan(&rec.ID, &rec.Name, &typ, &rec.Img, &flags, &data); err != nil {
		return nil, err
	}
	rec.Type = content.Type(typ)
	if err := json.Unmarshal([]byte(flags), &rec.Flags); err != nil {
		return nil, errors.WrapParse("json", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, errors.WrapParse("json", rec.ID, err)
	}
	return &rec, nil
}

// Get returns the record with id.
func (c *Collection) Get(ctx context.Context, id string) (*library.Record, error) {
	rec, err := scanRecord(c.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection_id = ? AND id = ?`, c.id, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(c.Label(), id)
	}
	if err != nil {
		return nil, errors.WrapStore("get", c.Label(), id, err)
	}
	return rec, nil
}

// Create inserts rec and returns its id.
func (c *Collection) Create(ctx context.Context, rec library.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Type == "" {
		rec.Type = c.typ
	}
	flags, data, err := encode(&rec)
	if err != nil {
		return "", errors.WrapStore("create", c.Label(), rec.ID, err)
	}
	now := time.Now().UTC().UnixMilli()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO records (id, collection_id, name, type, import_id, img, flags, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, c.id, rec.Name, string(rec.Type), rec.ImportID(), rec.Img, flags, data, now, now)
	if err != nil {
		return "", errors.WrapStore("create", c.Label(), rec.ID, err)
	}
	return rec.ID, nil
}

// Update applies patch to the record with id inside one transaction.
func (c *Collection) Update(ctx context.Context, id string, patch library.Patch) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection_id = ? AND id = ?`, c.id, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.WrapStore("update", c.Label(), id, errors.NewNotFoundError(c.Label(), id))
	}
	if err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}
	if err := library.ApplyPatch(rec, patch); err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}

	flags, data, err := encode(rec)
	if err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET name = ?, type = ?, import_id = ?, img = ?, flags = ?, data = ?, updated_at = ?
		 WHERE collection_id = ? AND id = ?`,
		rec.Name, string(rec.Type), rec.ImportID(), rec.Img, flags, data, time.Now().UTC().UnixMilli(), c.id, id); err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapStore("update", c.Label(), id, err)
	}
	return nil
}

// FindByImportID returns the first record carrying importID.
func (c *Collection) FindByImportID(ctx context.Context, importID string) (*library.Record, bool, error) {
	if importID == "" {
		return nil, false, nil
	}
	rec, err := scanRecord(c.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection_id = ? AND import_id = ? ORDER BY seq LIMIT 1`, c.id, importID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WrapStore("find", c.Label(), importID, err)
	}
	return rec, true, nil
}

// Records returns every record in creation order.
func (c *Collection) Records(ctx context.Context) ([]library.Record, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection_id = ? ORDER BY seq`, c.id)
	if err != nil {
		return nil, errors.WrapStore("list", c.Label(), "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []library.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.WrapStore("list", c.Label(), "", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("list", c.Label(), "", err)
	}
	return out, nil
}

func encode(rec *library.Record) (flags, data string, err error) {
	if rec.Flags == nil {
		rec.Flags = content.Attributes{}
	}
	if rec.Data == nil {
		rec.Data = content.Attributes{}
	}
	f, err := json.Marshal(rec.Flags)
	if err != nil {
		return "", "", err
	}
	d, err := json.Marshal(rec.Data)
	if err != nil {
		return "", "", err
	}
	return string(f), string(d), nil
}
