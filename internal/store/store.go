// Package store is the relational storage boundary for the analyser.
//
// It keeps projects, conversation threads, messages, evidence, pattern
// memory, analyses and generated documents in SQLite (with FTS5 over
// evidence). Every read and write is scoped to the calling user's ID:
// a row owned by someone else behaves exactly like a missing row.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a row does not exist or is not owned by
// the calling user.
var ErrNotFound = errors.New("not found")

// timeFormat is fixed-width so lexical order matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
	// MaxSearchResults caps evidence search results.
	MaxSearchResults int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".analyser"),
		MaxSearchResults: 20,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed persistence layer.
type Store struct {
	db  *sql.DB
	cfg Config
	now func() time.Time
}

// New creates a Store. It creates the data directory if needed, opens
// SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 20
	}

	dbPath := filepath.Join(cfg.DataDir, "analyser.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{db: db, cfg: cfg, now: now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			title            TEXT NOT NULL,
			client_name      TEXT,
			description      TEXT,
			status           TEXT NOT NULL DEFAULT 'active',
			stage            TEXT,
			health_status    TEXT NOT NULL DEFAULT 'healthy',
			stage_started_at TEXT,
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, updated_at DESC);

		CREATE TABLE IF NOT EXISTS conversation_threads (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			project_id TEXT,
			title      TEXT NOT NULL DEFAULT 'New Conversation',
			status     TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_threads_user    ON conversation_threads(user_id, updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_threads_project ON conversation_threads(project_id, created_at);

		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			thread_id  TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			role       TEXT NOT NULL CHECK (role IN ('user', 'analyser')),
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (thread_id) REFERENCES conversation_threads(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, created_at);

		CREATE TABLE IF NOT EXISTS evidence (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			project_id    TEXT,
			evidence_type TEXT NOT NULL DEFAULT 'note',
			title         TEXT NOT NULL,
			content       TEXT,
			file_url      TEXT,
			created_at    TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_evidence_project ON evidence(user_id, project_id, created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS evidence_fts USING fts5(
			title,
			content,
			evidence_type,
			content='evidence',
			content_rowid='rowid'
		);

		CREATE TABLE IF NOT EXISTS pattern_memory (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			project_id       TEXT,
			pattern_type     TEXT NOT NULL,
			content          TEXT NOT NULL,
			confidence_score REAL,
			last_seen_at     TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
		);

		CREATE INDEX IF NOT EXISTS idx_patterns_user ON pattern_memory(user_id, last_seen_at DESC);

		CREATE TABLE IF NOT EXISTS analyses (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			project_id        TEXT,
			input_text        TEXT NOT NULL,
			summary           TEXT,
			key_risks         TEXT,
			root_causes       TEXT,
			recommended_steps TEXT,
			warnings          TEXT,
			created_at        TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_user ON analyses(user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS documents (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			project_id    TEXT NOT NULL,
			document_type TEXT NOT NULL,
			content       TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(user_id, project_id, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Evidence FTS triggers (idempotent). Evidence is never updated, so
	// only insert and delete are mirrored.
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='evidence_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER evidence_fts_insert AFTER INSERT ON evidence BEGIN
				INSERT INTO evidence_fts(rowid, title, content, evidence_type)
				VALUES (new.rowid, new.title, new.content, new.evidence_type);
			END;

			CREATE TRIGGER evidence_fts_delete AFTER DELETE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, title, content, evidence_type)
				VALUES ('delete', old.rowid, old.title, old.content, old.evidence_type);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeFormat)
}

func newID() string {
	return uuid.NewString()
}

// ParseTime parses a timestamp written by the store.
func ParseTime(v string) (time.Time, error) {
	if t, err := time.Parse(timeFormat, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// sanitizeFTS wraps each word in quotes so FTS5 treats them literally.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// requireUser rejects empty user IDs so no query runs unscoped.
func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("store: user id is required")
	}
	return nil
}

// checkAffected maps a zero-row update or delete to ErrNotFound.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
