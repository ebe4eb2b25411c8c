package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// EvidenceType classifies an evidence record.
type EvidenceType string

const (
	EvidenceDecisionRecord  EvidenceType = "decision_record"
	EvidenceRequirement     EvidenceType = "requirement"
	EvidenceApproval        EvidenceType = "approval"
	EvidenceScopeDefinition EvidenceType = "scope_definition"
	EvidenceNote            EvidenceType = "note"
	EvidenceReference       EvidenceType = "reference"
)

var validEvidenceTypes = map[EvidenceType]bool{
	EvidenceDecisionRecord:  true,
	EvidenceRequirement:     true,
	EvidenceApproval:        true,
	EvidenceScopeDefinition: true,
	EvidenceNote:            true,
	EvidenceReference:       true,
}

// ValidateEvidenceType returns an error if t is not a known evidence type.
func ValidateEvidenceType(t EvidenceType) error {
	if !validEvidenceTypes[t] {
		return fmt.Errorf("invalid evidence type %q: must be one of: decision_record, requirement, approval, scope_definition, note, reference", t)
	}
	return nil
}

// Evidence is an immutable, timestamped project fact. The store offers
// insert, read and delete only; there is no update path.
type Evidence struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	ProjectID *string      `json:"project_id,omitempty"`
	Type      EvidenceType `json:"evidence_type"`
	Title     string       `json:"title"`
	Content   *string      `json:"content,omitempty"`
	FileURL   *string      `json:"file_url,omitempty"`
	CreatedAt string       `json:"created_at"`
}

// ShortID returns the first 8 characters of the ID, used as a citation
// reference in generated documents.
func (e Evidence) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}

// AddEvidenceParams holds the input for recording evidence.
type AddEvidenceParams struct {
	ProjectID string       `json:"project_id,omitempty"`
	Type      EvidenceType `json:"evidence_type"`
	Title     string       `json:"title"`
	Content   string       `json:"content,omitempty"`
	FileURL   string       `json:"file_url,omitempty"`
}

const evidenceColumns = `id, user_id, project_id, evidence_type, title, content, file_url, created_at`

// AddEvidence records a new evidence item. An empty type defaults to note.
func (s *Store) AddEvidence(userID string, p AddEvidenceParams) (*Evidence, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = EvidenceNote
	}
	if err := ValidateEvidenceType(p.Type); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, errors.New("evidence title is required")
	}
	if p.ProjectID != "" {
		if _, err := s.GetProject(userID, p.ProjectID); err != nil {
			return nil, err
		}
	}

	id := newID()
	if _, err := s.db.Exec(
		`INSERT INTO evidence (`+evidenceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, nullableString(p.ProjectID), string(p.Type), title,
		nullableString(p.Content), nullableString(p.FileURL), s.timestamp(),
	); err != nil {
		return nil, fmt.Errorf("add evidence: %w", err)
	}
	return s.GetEvidence(userID, id)
}

// GetEvidence retrieves one evidence item owned by userID.
func (s *Store) GetEvidence(userID, id string) (*Evidence, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT `+evidenceColumns+` FROM evidence WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	e, err := scanEvidence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListEvidence returns a project's evidence in creation order. An empty
// projectID lists evidence not attached to any project.
func (s *Store) ListEvidence(userID, projectID string) ([]Evidence, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE user_id = ?`
	args := []any{userID}
	if projectID != "" {
		query += " AND project_id = ?"
		args = append(args, projectID)
	} else {
		query += " AND project_id IS NULL"
	}
	query += " ORDER BY created_at ASC, rowid ASC"
	return s.queryEvidence(query, args...)
}

// SearchEvidence runs a full-text search over evidence title, content and
// type. An empty query returns the most recent evidence.
func (s *Store) SearchEvidence(userID, query, projectID string, limit int) ([]Evidence, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		sqlStr := `SELECT ` + evidenceColumns + ` FROM evidence WHERE user_id = ?`
		args := []any{userID}
		if projectID != "" {
			sqlStr += " AND project_id = ?"
			args = append(args, projectID)
		}
		sqlStr += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
		args = append(args, limit)
		return s.queryEvidence(sqlStr, args...)
	}

	sqlStr := `
		SELECT e.id, e.user_id, e.project_id, e.evidence_type, e.title, e.content, e.file_url, e.created_at
		FROM evidence_fts fts
		JOIN evidence e ON e.rowid = fts.rowid
		WHERE evidence_fts MATCH ? AND e.user_id = ?
	`
	args := []any{ftsQuery, userID}
	if projectID != "" {
		sqlStr += " AND e.project_id = ?"
		args = append(args, projectID)
	}
	sqlStr += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	results, err := s.queryEvidence(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search evidence: %w", err)
	}
	return results, nil
}

// DeleteEvidence removes an evidence item owned by userID.
func (s *Store) DeleteEvidence(userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM evidence WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	return checkAffected(res)
}

func (s *Store) queryEvidence(query string, args ...any) ([]Evidence, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *e)
	}
	return results, rows.Err()
}

func scanEvidence(row scanner) (*Evidence, error) {
	var e Evidence
	var typ string
	if err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &typ, &e.Title, &e.Content, &e.FileURL, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Type = EvidenceType(typ)
	return &e, nil
}
