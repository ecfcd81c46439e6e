package spacetraveling

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/spacetraveling/cms"
)

const (
	cursorScheme = "sqlite"
	maxPageSize  = 100
)

// Store is a cms.Source backed by a local SQLite database. It holds the
// same raw documents the CMS would serve, for offline work and tests.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the server read while an import writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    uid TEXT NOT NULL,
    type TEXT NOT NULL,
    first_publication_date TEXT NOT NULL DEFAULT '',
    last_publication_date TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS documents_type_uid ON documents (type, uid);
`)
	return err
}

// List returns the first page of documents of contentType, newest first.
func (s *Store) List(ctx context.Context, contentType string, pageSize int) (cms.Page, error) {
	return s.page(ctx, contentType, 1, pageSize)
}

// FetchCursor returns the page a cursor from List or FetchCursor points at.
func (s *Store) FetchCursor(ctx context.Context, cursor string) (cms.Page, error) {
	contentType, page, pageSize, err := parseCursor(cursor)
	if err != nil {
		return cms.Page{}, &cms.FetchError{Cursor: cursor, Err: err}
	}
	p, err := s.page(ctx, contentType, page, pageSize)
	if err != nil {
		return cms.Page{}, cms.AsFetchError(cursor, err)
	}
	return p, nil
}

func (s *Store) page(ctx context.Context, contentType string, page, pageSize int) (cms.Page, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE type = ?`, contentType).Scan(&total); err != nil {
		return cms.Page{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, uid, type, first_publication_date, last_publication_date, data FROM documents WHERE type = ? ORDER BY first_publication_date DESC, id LIMIT ? OFFSET ?`,
		contentType, pageSize, (page-1)*pageSize)
	if err != nil {
		return cms.Page{}, err
	}
	defer rows.Close()

	out := cms.Page{
		Page:       page,
		TotalPages: (total + pageSize - 1) / pageSize,
		Results:    []cms.Document{},
	}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return cms.Page{}, err
		}
		out.Results = append(out.Results, doc)
	}
	if err := rows.Err(); err != nil {
		return cms.Page{}, err
	}
	if page < out.TotalPages {
		out.NextPage = formatCursor(contentType, page+1, pageSize)
	}
	return out, nil
}

// GetByUID returns a single document by type and uid.
func (s *Store) GetByUID(ctx context.Context, contentType, uid string) (cms.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, uid, type, first_publication_date, last_publication_date, data FROM documents WHERE type = ? AND uid = ?`, contentType, uid)
	return scanOne(row)
}

// GetByID returns a single document by id.
func (s *Store) GetByID(ctx context.Context, id string) (cms.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, uid, type, first_publication_date, last_publication_date, data FROM documents WHERE id = ?`, id)
	return scanOne(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (cms.Document, error) {
	var doc cms.Document
	var data string
	if err := r.Scan(&doc.ID, &doc.UID, &doc.Type, &doc.FirstPublicationDate, &doc.LastPublicationDate, &data); err != nil {
		return cms.Document{}, err
	}
	if err := json.Unmarshal([]byte(data), &doc.Data); err != nil {
		return cms.Document{}, fmt.Errorf("decode document %q: %w", doc.ID, err)
	}
	return doc, nil
}

func scanOne(row *sql.Row) (cms.Document, error) {
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cms.Document{}, cms.ErrNotFound
	}
	return doc, err
}

// SaveDocument upserts a document keyed by type and uid. Documents without
// an id get one derived from type and uid, so re-importing is idempotent.
func (s *Store) SaveDocument(ctx context.Context, doc cms.Document) error {
	return saveDocument(ctx, s.db, doc)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveDocument(ctx context.Context, db execer, doc cms.Document) error {
	if doc.UID == "" || doc.Type == "" {
		return fmt.Errorf("document needs a uid and a type")
	}
	if doc.ID == "" {
		doc.ID = DocumentID(doc.Type, doc.UID)
	}
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE documents SET first_publication_date = ?, last_publication_date = ?, data = ? WHERE type = ? AND uid = ?`,
		doc.FirstPublicationDate, doc.LastPublicationDate, string(data), doc.Type, doc.UID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO documents (id, uid, type, first_publication_date, last_publication_date, data) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UID, doc.Type, doc.FirstPublicationDate, doc.LastPublicationDate, string(data))
	return err
}

// DeleteDocument removes a document by type and uid.
func (s *Store) DeleteDocument(ctx context.Context, contentType, uid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE type = ? AND uid = ?`, contentType, uid)
	return err
}

// Import reads a YAML list of documents from r and saves them in one
// transaction. Documents without a type get defaultType.
func (s *Store) Import(ctx context.Context, r io.Reader, defaultType string) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	var docs []cms.Document
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		return 0, fmt.Errorf("parse documents: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	for i, doc := range docs {
		if doc.Type == "" {
			doc.Type = defaultType
		}
		if err := saveDocument(ctx, tx, doc); err != nil {
			return 0, fmt.Errorf("document %d (%q): %w", i, doc.UID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// DocumentID derives a stable id for a document from its type and uid.
func DocumentID(contentType, uid string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(contentType+"/"+uid)).String()
}

func formatCursor(contentType string, page, pageSize int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return cursorScheme + ":" + url.PathEscape(contentType) + "?" + q.Encode()
}

func parseCursor(cursor string) (contentType string, page, pageSize int, err error) {
	u, err := url.Parse(cursor)
	if err != nil || u.Scheme != cursorScheme || u.Opaque == "" {
		return "", 0, 0, cms.ErrInvalidCursor
	}
	contentType, err = url.PathUnescape(u.Opaque)
	if err != nil {
		return "", 0, 0, cms.ErrInvalidCursor
	}
	page, err = strconv.Atoi(u.Query().Get("page"))
	if err != nil || page < 1 {
		return "", 0, 0, cms.ErrInvalidCursor
	}
	pageSize, err = strconv.Atoi(u.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		return "", 0, 0, cms.ErrInvalidCursor
	}
	// (page-1)*pageSize is the query OFFSET.
	if page-1 > math.MaxInt/pageSize {
		return "", 0, 0, cms.ErrInvalidCursor
	}
	return contentType, page, pageSize, nil
}
