package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/conversation"
)

// Thread status values.
const (
	ThreadActive   = "active"
	ThreadPaused   = "paused"
	ThreadResolved = "resolved"
)

// Default thread titles.
const (
	ProjectThreadTitle = "Project Conversation"
	GeneralThreadTitle = "New Conversation"
)

// Thread is a conversation, optionally attached to a project.
type Thread struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	ProjectID *string `json:"project_id,omitempty"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Message is one persisted conversation turn. Messages are immutable.
type Message struct {
	ID        string            `json:"id"`
	ThreadID  string            `json:"thread_id"`
	UserID    string            `json:"user_id"`
	Role      conversation.Role `json:"role"`
	Content   string            `json:"content"`
	CreatedAt string            `json:"created_at"`
}

const threadColumns = `id, user_id, project_id, title, status, created_at, updated_at`

// CreateThread starts a new thread. projectID may be empty for a general
// conversation; when set, the project must belong to userID.
func (s *Store) CreateThread(userID, projectID, title string) (*Thread, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if projectID != "" {
		if _, err := s.GetProject(userID, projectID); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(title) == "" {
		title = GeneralThreadTitle
	}

	id := newID()
	now := s.timestamp()
	if _, err := s.db.Exec(
		`INSERT INTO conversation_threads (id, user_id, project_id, title, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, nullableString(projectID), title, ThreadActive, now, now,
	); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return s.GetThread(userID, id)
}

// PrimaryThread returns the project's first-created thread, creating it
// when the project has none.
func (s *Store) PrimaryThread(userID, projectID string) (*Thread, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT `+threadColumns+` FROM conversation_threads
		 WHERE project_id = ? AND user_id = ?
		 ORDER BY created_at ASC, rowid ASC
		 LIMIT 1`,
		projectID, userID,
	)
	t, err := scanThread(row)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("primary thread: %w", err)
	}
	return s.CreateThread(userID, projectID, ProjectThreadTitle)
}

// GetThread retrieves a thread owned by userID.
func (s *Store) GetThread(userID, id string) (*Thread, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT `+threadColumns+` FROM conversation_threads WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	t, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ListThreads returns threads, most recently updated first. With a
// projectID only that project's threads are returned; with generalOnly
// only threads without a project.
func (s *Store) ListThreads(userID, projectID string, generalOnly bool) ([]Thread, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := `SELECT ` + threadColumns + ` FROM conversation_threads WHERE user_id = ?`
	args := []any{userID}
	switch {
	case projectID != "":
		query += " AND project_id = ?"
		args = append(args, projectID)
	case generalOnly:
		query += " AND project_id IS NULL"
	}
	query += " ORDER BY updated_at DESC, rowid DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *t)
	}
	return results, rows.Err()
}

// RenameThread sets a thread's title.
func (s *Store) RenameThread(userID, id, title string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("thread title is required")
	}
	res, err := s.db.Exec(
		`UPDATE conversation_threads SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, s.timestamp(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("rename thread: %w", err)
	}
	return checkAffected(res)
}

// SetThreadStatus sets a thread's status (active, paused, resolved).
func (s *Store) SetThreadStatus(userID, id, status string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	switch status {
	case ThreadActive, ThreadPaused, ThreadResolved:
	default:
		return fmt.Errorf("invalid thread status %q: must be one of: active, paused, resolved", status)
	}
	res, err := s.db.Exec(
		`UPDATE conversation_threads SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		status, s.timestamp(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("set thread status: %w", err)
	}
	return checkAffected(res)
}

// AddMessage appends a message to a thread owned by userID and bumps the
// thread's updated_at. User messages must have content; an analyser reply
// may be empty once its stage directive is stripped.
func (s *Store) AddMessage(userID, threadID string, role conversation.Role, content string) (*Message, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := conversation.ValidateRole(role); err != nil {
		return nil, err
	}
	if role == conversation.RoleUser && strings.TrimSpace(content) == "" {
		return nil, errors.New("message content is required")
	}
	if _, err := s.GetThread(userID, threadID); err != nil {
		return nil, err
	}

	m := &Message{
		ID:        newID(),
		ThreadID:  threadID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.timestamp(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO messages (id, thread_id, user_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, m.UserID, string(m.Role), m.Content, m.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE conversation_threads SET updated_at = ? WHERE id = ?`,
		m.CreatedAt, threadID,
	); err != nil {
		return nil, fmt.Errorf("touch thread: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return m, nil
}

// ListMessages returns a thread's messages in creation order.
func (s *Store) ListMessages(userID, threadID string) ([]Message, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, thread_id, user_id, role, content, created_at
		 FROM messages
		 WHERE thread_id = ? AND user_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		threadID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Message
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = conversation.Role(role)
		results = append(results, m)
	}
	return results, rows.Err()
}

// History converts stored messages to conversation messages.
func History(msgs []Message) []conversation.Message {
	out := make([]conversation.Message, len(msgs))
	for i, m := range msgs {
		out[i] = conversation.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func scanThread(row scanner) (*Thread, error) {
	var t Thread
	if err := row.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
