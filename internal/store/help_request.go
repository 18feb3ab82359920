package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/helpline/internal/model"
)

type HelpRequestStore struct {
	db *sql.DB
}

func NewHelpRequestStore(db *sql.DB) *HelpRequestStore {
	return &HelpRequestStore{db: db}
}

func scanHelpRequest(scanner interface{ Scan(...any) error }) (*model.HelpRequest, error) {
	var hr model.HelpRequest
	var message sql.NullString
	var resolvedBy sql.NullInt64
	var resolvedAt sql.NullTime

	err := scanner.Scan(
		&hr.ID, &hr.DependentID, &message, &hr.Urgency, &hr.Status,
		&resolvedBy, &resolvedAt, &hr.CreatedAt, &hr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if message.Valid {
		hr.Message = &message.String
	}
	if resolvedBy.Valid {
		hr.ResolvedBy = &resolvedBy.Int64
	}
	if resolvedAt.Valid {
		hr.ResolvedAt = &resolvedAt.Time
	}
	return &hr, nil
}

const helpRequestCols = `id, dependent_id, message, urgency, status, resolved_by, resolved_at, created_at, updated_at`

func (s *HelpRequestStore) Create(dependentID int64, message *string, urgency model.Urgency) (*model.HelpRequest, error) {
	var msg sql.NullString
	if message != nil {
		msg = sql.NullString{String: *message, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO help_requests (dependent_id, message, urgency, status) VALUES (?, ?, ?, 'open')`,
		dependentID, msg, urgency,
	)
	if err != nil {
		return nil, fmt.Errorf("insert help request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HelpRequestStore) GetByID(id int64) (*model.HelpRequest, error) {
	row := s.db.QueryRow(`SELECT `+helpRequestCols+` FROM help_requests WHERE id = ?`, id)
	hr, err := scanHelpRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get help request: %w", err)
	}
	return hr, nil
}

// ListForDependent returns every request owned by the dependent, newest first.
func (s *HelpRequestStore) ListForDependent(dependentID int64) ([]model.HelpRequest, error) {
	return s.list(
		`SELECT `+helpRequestCols+` FROM help_requests WHERE dependent_id = ? ORDER BY id DESC`,
		dependentID,
	)
}

// ListForSupervisor returns requests of every dependent actively linked to
// the supervisor, newest first.
func (s *HelpRequestStore) ListForSupervisor(supervisorID int64) ([]model.HelpRequest, error) {
	return s.list(
		`SELECT h.id, h.dependent_id, h.message, h.urgency, h.status, h.resolved_by, h.resolved_at, h.created_at, h.updated_at
		 FROM help_requests h
		 JOIN links l ON l.dependent_id = h.dependent_id
		 WHERE l.supervisor_id = ? AND l.status = 'active'
		 ORDER BY h.id DESC`,
		supervisorID,
	)
}

func (s *HelpRequestStore) list(query string, args ...any) ([]model.HelpRequest, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	defer rows.Close()

	var out []model.HelpRequest
	for rows.Next() {
		hr, err := scanHelpRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan help request: %w", err)
		}
		out = append(out, *hr)
	}
	return out, rows.Err()
}

// Transition moves the request from one status to another and records the
// resolver. It is a compare-and-set: false means the request was no longer
// in the from status (or does not exist) and nothing was written.
func (s *HelpRequestStore) Transition(id int64, from, to model.HelpStatus, resolvedBy int64, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE help_requests
		 SET status = ?, resolved_by = ?, resolved_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, resolvedBy, at.UTC(), id, from,
	)
	if err != nil {
		return false, fmt.Errorf("transition help request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
