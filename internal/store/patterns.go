package store

import (
	"errors"
	"fmt"
	"strings"
)

// PatternMemory is an abstracted insight learned from past engagements.
// It steers the advisor silently and is never shown to clients.
type PatternMemory struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	ProjectID       *string  `json:"project_id,omitempty"`
	PatternType     string   `json:"pattern_type"`
	Content         string   `json:"content"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	LastSeenAt      string   `json:"last_seen_at"`
	CreatedAt       string   `json:"created_at"`
}

// AddPatternParams holds the input for recording a pattern.
type AddPatternParams struct {
	ProjectID       string   `json:"project_id,omitempty"`
	PatternType     string   `json:"pattern_type"`
	Content         string   `json:"content"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

const patternColumns = `id, user_id, project_id, pattern_type, content, confidence_score, last_seen_at, created_at`

// AddPattern records a new pattern memory entry.
func (s *Store) AddPattern(userID string, p AddPatternParams) (*PatternMemory, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	typ := strings.TrimSpace(p.PatternType)
	content := strings.TrimSpace(p.Content)
	if typ == "" {
		return nil, errors.New("pattern type is required")
	}
	if content == "" {
		return nil, errors.New("pattern content is required")
	}
	if c := p.ConfidenceScore; c != nil && (*c < 0 || *c > 1) {
		return nil, fmt.Errorf("confidence score %v out of range [0,1]", *c)
	}
	if p.ProjectID != "" {
		if _, err := s.GetProject(userID, p.ProjectID); err != nil {
			return nil, err
		}
	}

	id := newID()
	now := s.timestamp()
	if _, err := s.db.Exec(
		`INSERT INTO pattern_memory (`+patternColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, nullableString(p.ProjectID), typ, content, p.ConfidenceScore, now, now,
	); err != nil {
		return nil, fmt.Errorf("add pattern: %w", err)
	}

	rows, err := s.queryPatterns(`SELECT `+patternColumns+` FROM pattern_memory WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// RecentPatterns returns the user's patterns, most recently seen first.
// A limit of 0 or less returns all of them.
func (s *Store) RecentPatterns(userID string, limit int) ([]PatternMemory, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := `SELECT ` + patternColumns + ` FROM pattern_memory WHERE user_id = ?
		ORDER BY last_seen_at DESC, rowid DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryPatterns(query, args...)
}

// TouchPattern marks a pattern as seen now.
func (s *Store) TouchPattern(userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE pattern_memory SET last_seen_at = ? WHERE id = ? AND user_id = ?`,
		s.timestamp(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("touch pattern: %w", err)
	}
	return checkAffected(res)
}

// DeletePattern removes a pattern owned by userID.
func (s *Store) DeletePattern(userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM pattern_memory WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	return checkAffected(res)
}

func (s *Store) queryPatterns(query string, args ...any) ([]PatternMemory, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []PatternMemory
	for rows.Next() {
		var p PatternMemory
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.ProjectID, &p.PatternType, &p.Content,
			&p.ConfidenceScore, &p.LastSeenAt, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
