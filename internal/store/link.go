package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/helpline/internal/model"
)

type LinkStore struct {
	db *sql.DB
}

func NewLinkStore(db *sql.DB) *LinkStore {
	return &LinkStore{db: db}
}

// LinkPeer is a link together with the profile on the other end.
type LinkPeer struct {
	model.Link
	Peer model.ProfileSummary
}

func scanLink(scanner interface{ Scan(...any) error }) (*model.Link, error) {
	var l model.Link
	err := scanner.Scan(&l.ID, &l.SupervisorID, &l.DependentID, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const linkCols = `id, supervisor_id, dependent_id, status, created_at, updated_at`

// Activate creates the (supervisor, dependent) link as active, or moves an
// existing link for that pair to active. It never creates a second row.
func (s *LinkStore) Activate(supervisorID, dependentID int64) (*model.Link, error) {
	_, err := s.db.Exec(
		`INSERT INTO links (supervisor_id, dependent_id, status) VALUES (?, ?, 'active')
		 ON CONFLICT (supervisor_id, dependent_id) DO UPDATE
		 SET status = 'active', updated_at = CURRENT_TIMESTAMP
		 WHERE links.status <> 'active'`,
		supervisorID, dependentID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert link: %w", err)
	}
	l, err := s.GetByPair(supervisorID, dependentID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("upsert link: row missing after write")
	}
	return l, nil
}

func (s *LinkStore) GetByID(id int64) (*model.Link, error) {
	row := s.db.QueryRow(`SELECT `+linkCols+` FROM links WHERE id = ?`, id)
	l, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return l, nil
}

func (s *LinkStore) GetByPair(supervisorID, dependentID int64) (*model.Link, error) {
	row := s.db.QueryRow(
		`SELECT `+linkCols+` FROM links WHERE supervisor_id = ? AND dependent_id = ?`,
		supervisorID, dependentID,
	)
	l, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get link by pair: %w", err)
	}
	return l, nil
}

func (s *LinkStore) UpdateStatus(id int64, status model.LinkStatus) (*model.Link, error) {
	_, err := s.db.Exec(
		`UPDATE links SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update link status: %w", err)
	}
	return s.GetByID(id)
}

// IsActive reports whether an active link joins the supervisor and dependent.
func (s *LinkStore) IsActive(supervisorID, dependentID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM links WHERE supervisor_id = ? AND dependent_id = ? AND status = 'active'`,
		supervisorID, dependentID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check active link: %w", err)
	}
	return n > 0, nil
}

// ActiveSupervisorIDs returns every supervisor with an active link to the dependent.
func (s *LinkStore) ActiveSupervisorIDs(dependentID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT supervisor_id FROM links WHERE dependent_id = ? AND status = 'active' ORDER BY supervisor_id`,
		dependentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active supervisors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan supervisor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListForSupervisor returns the supervisor's links with the dependent's profile.
// An empty status matches every status.
func (s *LinkStore) ListForSupervisor(supervisorID int64, status model.LinkStatus) ([]LinkPeer, error) {
	return s.listWithPeers(
		`SELECT l.id, l.supervisor_id, l.dependent_id, l.status, l.created_at, l.updated_at,
		        p.account_id, p.handle, p.role
		 FROM links l JOIN profiles p ON p.account_id = l.dependent_id
		 WHERE l.supervisor_id = ? AND (? = '' OR l.status = ?)
		 ORDER BY l.id`,
		supervisorID, status,
	)
}

// ListForDependent returns the dependent's links with each supervisor's profile.
// An empty status matches every status.
func (s *LinkStore) ListForDependent(dependentID int64, status model.LinkStatus) ([]LinkPeer, error) {
	return s.listWithPeers(
		`SELECT l.id, l.supervisor_id, l.dependent_id, l.status, l.created_at, l.updated_at,
		        p.account_id, p.handle, p.role
		 FROM links l JOIN profiles p ON p.account_id = l.supervisor_id
		 WHERE l.dependent_id = ? AND (? = '' OR l.status = ?)
		 ORDER BY l.id`,
		dependentID, status,
	)
}

func (s *LinkStore) listWithPeers(query string, accountID int64, status model.LinkStatus) ([]LinkPeer, error) {
	rows, err := s.db.Query(query, accountID, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []LinkPeer
	for rows.Next() {
		var lp LinkPeer
		var role string
		if err := rows.Scan(
			&lp.ID, &lp.SupervisorID, &lp.DependentID, &lp.Status, &lp.CreatedAt, &lp.UpdatedAt,
			&lp.Peer.AccountID, &lp.Peer.Handle, &role,
		); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		if lp.Peer.Role, err = model.ParseRole(role); err != nil {
			return nil, err
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}
