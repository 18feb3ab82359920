package model

import "time"

type Urgency string

const (
	UrgencyOK        Urgency = "ok"
	UrgencyAttention Urgency = "attention"
	UrgencyUrgent    Urgency = "urgent"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyOK, UrgencyAttention, UrgencyUrgent:
		return true
	}
	return false
}

type HelpStatus string

const (
	HelpOpen     HelpStatus = "open"
	HelpAnswered HelpStatus = "answered"
	HelpClosed   HelpStatus = "closed"
)

func (s HelpStatus) Valid() bool {
	switch s {
	case HelpOpen, HelpAnswered, HelpClosed:
		return true
	}
	return false
}

type HelpRequest struct {
	ID          int64      `json:"id"`
	DependentID int64      `json:"student_id"`
	Message     *string    `json:"message"`
	Urgency     Urgency    `json:"urgency"`
	Status      HelpStatus `json:"status"`
	ResolvedBy  *int64     `json:"resolved_by"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
