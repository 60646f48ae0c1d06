package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storysage/internal/biography"
	"storysage/internal/editor"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no biography or draft matches a lookup.
var ErrNotFound = errors.New("not found")

// SQLiteStore keeps the latest fetched biography and the in-progress edit
// session (draft) durable between CLI invocations. It is a local cache,
// never the source of truth: the backend's tree replaces the stored copy
// on every successful save.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS biographies (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS drafts (
			biography_id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			edits TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveBiography stores an authoritative biography tree, replacing any
// previous copy with the same id.
func (s *SQLiteStore) SaveBiography(ctx context.Context, doc *biography.Document) error {
	payload, err := biography.EncodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO biographies (id, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, fetched_at=excluded.fetched_at
	`, doc.ID, string(payload), nowRFC3339())
	return err
}

// LoadBiography returns the stored biography with the given id.
func (s *SQLiteStore) LoadBiography(ctx context.Context, id string) (*biography.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT payload FROM biographies WHERE id = ?", id)
	return scanBiography(row)
}

// LatestBiography returns the most recently stored biography.
func (s *SQLiteStore) LatestBiography(ctx context.Context) (*biography.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT payload FROM biographies ORDER BY fetched_at DESC, id LIMIT 1")
	return scanBiography(row)
}

func scanBiography(row *sql.Row) (*biography.Document, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return biography.DecodeDocument([]byte(payload))
}

// SaveDraft persists an in-progress edit session: the mutated working tree
// plus the compacted edit log. One draft exists per biography.
func (s *SQLiteStore) SaveDraft(ctx context.Context, biographyID string, doc *biography.Document, edits []editor.Edit) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	editsJSON, err := json.Marshal(edits)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (biography_id, document, edits, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(biography_id) DO UPDATE SET
			document=excluded.document,
			edits=excluded.edits,
			updated_at=excluded.updated_at
	`, biographyID, string(docJSON), string(editsJSON), nowRFC3339())
	return err
}

// LoadDraft returns the stored working tree and edit log for a biography.
func (s *SQLiteStore) LoadDraft(ctx context.Context, biographyID string) (*biography.Document, []editor.Edit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT document, edits FROM drafts WHERE biography_id = ?", biographyID)

	var docJSON, editsJSON string
	if err := row.Scan(&docJSON, &editsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var doc biography.Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode draft document: %w", err)
	}
	var edits []editor.Edit
	if err := json.Unmarshal([]byte(editsJSON), &edits); err != nil {
		return nil, nil, fmt.Errorf("failed to decode draft edits: %w", err)
	}
	return &doc, edits, nil
}

// DeleteDraft removes a biography's draft, if any.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, biographyID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE biography_id = ?", biographyID)
	return err
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
