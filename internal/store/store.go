// Package store persists labeling results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/doclabel/internal/anchors"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/engine"
)

// ErrNotFound is returned when a document has no stored result.
var ErrNotFound = errors.New("document not found")

// Store wraps the results database.
type Store struct {
	db   *sql.DB
	path string
}

// Document identifies a stored result.
type Document struct {
	DocID       string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	Anchors     int       `json:"anchor_count"`
	Unresolved  int       `json:"unresolved_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Record is a stored document with its full result.
type Record struct {
	Document
	Result *engine.Result `json:"result"`
}

// Totals are aggregate counts over the whole store.
type Totals struct {
	Documents int `json:"documents"`
	Anchors   int `json:"anchors"`
}

// Open opens or creates the database at path and initializes the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 10000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Save stores res under doc.DocID, replacing any earlier result for it.
func (s *Store) Save(ctx context.Context, doc Document, res *engine.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (doc_id, filename, title, content_hash, anchor_count, unresolved_count, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filename = excluded.filename,
			title = excluded.title,
			content_hash = excluded.content_hash,
			anchor_count = excluded.anchor_count,
			unresolved_count = excluded.unresolved_count,
			result_json = excluded.result_json,
			updated_at = CURRENT_TIMESTAMP`,
		doc.DocID, doc.Filename, res.Title, doc.ContentHash,
		res.Stats.Anchors, res.Stats.Unresolved, string(data))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.DocID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM anchors WHERE doc_id = ?`, doc.DocID); err != nil {
		return fmt.Errorf("clear anchors %s: %w", doc.DocID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anchors (doc_id, anchor_id, position, kind, role, label, xref, value, level, title, system_id, bib_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare anchors: %w", err)
	}
	defer stmt.Close()

	for i, e := range res.Anchors {
		var bib sql.NullString
		if e.Bib != nil {
			b, err := json.Marshal(e.Bib)
			if err != nil {
				return fmt.Errorf("marshal bib %s: %w", e.ID, err)
			}
			bib = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, doc.DocID, e.ID, i, string(e.Kind), string(e.Role),
			e.Label, e.Xref, e.Value, e.Level, e.Title, e.System, bib); err != nil {
			return fmt.Errorf("insert anchor %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns the stored result for docID.
func (s *Store) Get(ctx context.Context, docID string) (*Record, error) {
	var rec Record
	var title sql.NullString
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT doc_id, filename, title, content_hash, anchor_count, unresolved_count, result_json, created_at, updated_at
		FROM documents WHERE doc_id = ?`, docID).
		Scan(&rec.DocID, &rec.Filename, &title, &rec.ContentHash, &rec.Anchors, &rec.Unresolved, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, err)
	}
	rec.Title = title.String

	var res engine.Result
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", docID, err)
	}
	rec.Result = &res
	return &rec, nil
}

// List returns stored documents, most recently updated first.
func (s *Store) List(ctx context.Context, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, filename, title, content_hash, anchor_count, unresolved_count, created_at, updated_at
		FROM documents ORDER BY updated_at DESC, doc_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var d Document
		var title sql.NullString
		if err := rows.Scan(&d.DocID, &d.Filename, &title, &d.ContentHash, &d.Anchors, &d.Unresolved, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Title = title.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// Anchors returns the anchor table stored for docID, optionally limited to
// one kind, in document order.
func (s *Store) Anchors(ctx context.Context, docID string, kind doctree.Kind) ([]anchors.Entry, error) {
	if ok, err := s.exists(ctx, docID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}

	query := `SELECT anchor_id, kind, role, label, xref, value, level, title, system_id, bib_json
		FROM anchors WHERE doc_id = ?`
	args := []any{docID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query anchors %s: %w", docID, err)
	}
	defer rows.Close()

	var out []anchors.Entry
	for rows.Next() {
		var e anchors.Entry
		var kind, role, label, xref, value, title, bib sql.NullString
		if err := rows.Scan(&e.ID, &kind, &role, &label, &xref, &value, &e.Level, &title, &e.System, &bib); err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		e.Kind = doctree.Kind(kind.String)
		e.Role = doctree.Role(role.String)
		e.Label, e.Xref, e.Value, e.Title = label.String, xref.String, value.String, title.String
		if bib.Valid {
			e.Bib = &anchors.Bib{}
			if err := json.Unmarshal([]byte(bib.String), e.Bib); err != nil {
				return nil, fmt.Errorf("decode bib %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindByHash returns the ID of a document already stored with the given
// content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	var docID string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc_id FROM documents WHERE content_hash = ? ORDER BY created_at LIMIT 1`, hash).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	return docID, true, nil
}

// Delete removes a document and its anchors. It returns the number of
// anchors deleted along with it.
func (s *Store) Delete(ctx context.Context, docID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anchors WHERE doc_id = ?`, docID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count anchors %s: %w", docID, err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	if err != nil {
		return 0, fmt.Errorf("delete document %s: %w", docID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete document %s: %w", docID, err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// Totals counts stored documents and anchors.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM anchors)`).Scan(&t.Documents, &t.Anchors)
	if err != nil {
		return Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

func (s *Store) exists(ctx context.Context, docID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE doc_id = ?`, docID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup document %s: %w", docID, err)
	}
	return true, nil
}
