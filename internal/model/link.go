package model

import "time"

type LinkStatus string

const (
	LinkPending LinkStatus = "pending"
	LinkActive  LinkStatus = "active"
	LinkBlocked LinkStatus = "blocked"
)

func (s LinkStatus) Valid() bool {
	switch s {
	case LinkPending, LinkActive, LinkBlocked:
		return true
	}
	return false
}

// Link pairs one dependent with one supervisor. The (supervisor, dependent)
// pair is unique.
type Link struct {
	ID           int64      `json:"id"`
	SupervisorID int64      `json:"caregiver_id"`
	DependentID  int64      `json:"student_id"`
	Status       LinkStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Involves reports whether accountID is one of the link's endpoints.
func (l *Link) Involves(accountID int64) bool {
	return l.SupervisorID == accountID || l.DependentID == accountID
}
