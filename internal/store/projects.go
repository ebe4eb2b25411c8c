package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/analyser/internal/stages"
)

// Project lifecycle status values.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Project is one client engagement.
type Project struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Title          string        `json:"title"`
	ClientName     *string       `json:"client_name,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Status         string        `json:"status"`
	Stage          *stages.Stage `json:"stage,omitempty"`
	HealthStatus   stages.Health `json:"health_status"`
	DaysInStage    int           `json:"days_in_stage"`
	StageStartedAt *string       `json:"stage_started_at,omitempty"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

// CurrentStage returns the project's stage, defaulting to the first one
// when none is recorded.
func (p *Project) CurrentStage() stages.Stage {
	if p.Stage == nil {
		return stages.Default
	}
	return stages.Normalize(*p.Stage)
}

// CreateProjectParams holds the input for creating a project.
type CreateProjectParams struct {
	Title       string `json:"title"`
	ClientName  string `json:"client_name,omitempty"`
	Description string `json:"description,omitempty"`
}

const projectColumns = `id, user_id, title, client_name, description, status, stage,
	health_status, stage_started_at, created_at, updated_at`

// CreateProject inserts a new active project at the first stage with
// healthy status.
func (s *Store) CreateProject(userID string, p CreateProjectParams) (*Project, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, errors.New("project title is required")
	}

	id := newID()
	now := s.timestamp()
	_, err := s.db.Exec(
		`INSERT INTO projects (id, user_id, title, client_name, description, status, stage,
		                       health_status, stage_started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, title,
		nullableString(strings.TrimSpace(p.ClientName)),
		nullableString(strings.TrimSpace(p.Description)),
		ProjectActive, string(stages.Default), string(stages.Healthy),
		now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.GetProject(userID, id)
}

// GetProject retrieves a project owned by userID.
func (s *Store) GetProject(userID, id string) (*Project, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	p, err := s.scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListProjects returns the user's projects, most recently updated first.
// An empty status returns every project.
func (s *Store) ListProjects(userID, status string) ([]Project, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC, rowid DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Project
	for rows.Next() {
		p, err := s.scanProject(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *p)
	}
	return results, rows.Err()
}

// UpdateProjectStage moves a project to stage, resetting its stage clock.
// Unknown stage identifiers are rejected so the stored stage is always
// one of the fixed set.
func (s *Store) UpdateProjectStage(userID, id string, stage stages.Stage) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := stages.Validate(stage); err != nil {
		return err
	}
	now := s.timestamp()
	res, err := s.db.Exec(
		`UPDATE projects SET stage = ?, stage_started_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(stage), now, now, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update project stage: %w", err)
	}
	return checkAffected(res)
}

// UpdateProjectHealth sets a project's health status.
func (s *Store) UpdateProjectHealth(userID, id string, health stages.Health) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := stages.ValidateHealth(health); err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE projects SET health_status = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(health), s.timestamp(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("update project health: %w", err)
	}
	return checkAffected(res)
}

// UpdateProjectStatus sets the lifecycle status (active, completed, archived).
func (s *Store) UpdateProjectStatus(userID, id, status string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	switch status {
	case ProjectActive, ProjectCompleted, ProjectArchived:
	default:
		return fmt.Errorf("invalid project status %q: must be one of: active, completed, archived", status)
	}
	res, err := s.db.Exec(
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		status, s.timestamp(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return checkAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanProject(row scanner) (*Project, error) {
	var p Project
	var stage *string
	var health string
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.ClientName, &p.Description, &p.Status, &stage,
		&health, &p.StageStartedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if stage != nil {
		st := stages.Stage(*stage)
		p.Stage = &st
	}
	p.HealthStatus = stages.NormalizeHealth(stages.Health(health))

	started := p.CreatedAt
	if p.StageStartedAt != nil {
		started = *p.StageStartedAt
	}
	p.DaysInStage = daysSince(started, s.now())
	return &p, nil
}

// daysSince returns whole days elapsed between ts and now, never negative.
func daysSince(ts string, now time.Time) int {
	t, err := ParseTime(ts)
	if err != nil {
		return 0
	}
	d := int(now.Sub(t) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}
