package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ─── Analyses ────────────────────────────────────────────────────────────────

// Analysis is a stored situation analysis.
type Analysis struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	ProjectID        *string  `json:"project_id,omitempty"`
	InputText        string   `json:"input_text"`
	Summary          string   `json:"summary"`
	KeyRisks         []string `json:"key_risks"`
	RootCauses       []string `json:"root_causes"`
	RecommendedSteps []string `json:"recommended_steps"`
	Warnings         []string `json:"warnings"`
	CreatedAt        string   `json:"created_at"`
}

// SaveAnalysis stores an analysis and fills in its ID and timestamp.
func (s *Store) SaveAnalysis(userID string, a *Analysis) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if strings.TrimSpace(a.InputText) == "" {
		return errors.New("analysis input is required")
	}
	if a.ProjectID != nil && *a.ProjectID != "" {
		if _, err := s.GetProject(userID, *a.ProjectID); err != nil {
			return err
		}
	}

	lists := make([]string, 0, 4)
	for _, l := range [][]string{a.KeyRisks, a.RootCauses, a.RecommendedSteps, a.Warnings} {
		if l == nil {
			l = []string{}
		}
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
		lists = append(lists, string(data))
	}

	a.ID = newID()
	a.UserID = userID
	a.CreatedAt = s.timestamp()
	var projectID *string
	if a.ProjectID != nil {
		projectID = nullableString(*a.ProjectID)
	}
	if _, err := s.db.Exec(
		`INSERT INTO analyses (id, user_id, project_id, input_text, summary, key_risks, root_causes,
		                       recommended_steps, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, userID, projectID, a.InputText, a.Summary,
		lists[0], lists[1], lists[2], lists[3], a.CreatedAt,
	); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// ListAnalyses returns the user's analyses, newest first. With a
// projectID only that project's analyses are returned.
func (s *Store) ListAnalyses(userID, projectID string, limit int) ([]Analysis, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, project_id, input_text, summary, key_risks, root_causes,
	                 recommended_steps, warnings, created_at
	          FROM analyses WHERE user_id = ?`
	args := []any{userID}
	if projectID != "" {
		query += " AND project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Analysis
	for rows.Next() {
		var a Analysis
		var summary, risks, causes, steps, warnings *string
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ProjectID, &a.InputText, &summary,
			&risks, &causes, &steps, &warnings, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Summary = derefString(summary)
		a.KeyRisks = decodeList(risks)
		a.RootCauses = decodeList(causes)
		a.RecommendedSteps = decodeList(steps)
		a.Warnings = decodeList(warnings)
		results = append(results, a)
	}
	return results, rows.Err()
}

func decodeList(v *string) []string {
	out := []string{}
	if v == nil {
		return out
	}
	_ = json.Unmarshal([]byte(*v), &out) // malformed rows read as empty
	return out
}

// ─── Documents ───────────────────────────────────────────────────────────────

// Document is a generated client-facing document, kept as history.
type Document struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	ProjectID    string `json:"project_id"`
	DocumentType string `json:"document_type"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at"`
}

// SaveDocument appends a generated document to the project's history.
func (s *Store) SaveDocument(userID, projectID, documentType, content string) (*Document, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := s.GetProject(userID, projectID); err != nil {
		return nil, err
	}
	d := &Document{
		ID:           newID(),
		UserID:       userID,
		ProjectID:    projectID,
		DocumentType: documentType,
		Content:      content,
		CreatedAt:    s.timestamp(),
	}
	if _, err := s.db.Exec(
		`INSERT INTO documents (id, user_id, project_id, document_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.ProjectID, d.DocumentType, d.Content, d.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a project's generated documents, newest first.
func (s *Store) ListDocuments(userID, projectID string) ([]Document, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, user_id, project_id, document_type, content, created_at
		 FROM documents WHERE user_id = ? AND project_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		userID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.ProjectID, &d.DocumentType, &d.Content, &d.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}
