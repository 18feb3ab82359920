// Package helprequest implements the help request lifecycle: dependents open
// requests, actively linked supervisors answer and close them, and every
// change is pushed to the dependent and its supervisors.
package helprequest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/realtime"
)

// MaxMessageLen bounds the free-text message, in characters.
const MaxMessageLen = 500

var (
	ErrNotFound          = errors.New("help request not found")
	ErrForbidden         = errors.New("not linked to this student")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidUrgency    = errors.New("urgency must be ok, attention, or urgent")
	ErrMessageTooLong    = fmt.Errorf("message exceeds %d characters", MaxMessageLen)
)

type RequestStore interface {
	Create(dependentID int64, message *string, urgency model.Urgency) (*model.HelpRequest, error)
	GetByID(id int64) (*model.HelpRequest, error)
	ListForDependent(dependentID int64) ([]model.HelpRequest, error)
	ListForSupervisor(supervisorID int64) ([]model.HelpRequest, error)
	Transition(id int64, from, to model.HelpStatus, resolvedBy int64, at time.Time) (bool, error)
}

type LinkStore interface {
	IsActive(supervisorID, dependentID int64) (bool, error)
	ActiveSupervisorIDs(dependentID int64) ([]int64, error)
}

type Service struct {
	requests RequestStore
	links    LinkStore
	emitter  realtime.Emitter
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(requests RequestStore, links LinkStore, emitter realtime.Emitter, logger *slog.Logger) *Service {
	return &Service{
		requests: requests,
		links:    links,
		emitter:  emitter,
		now:      time.Now,
		logger:   logger,
	}
}

// Create opens a new request for the dependent. An empty urgency means ok;
// a blank message is stored as absent.
func (s *Service) Create(dependentID int64, message *string, urgency model.Urgency) (*model.HelpRequest, error) {
	if urgency == "" {
		urgency = model.UrgencyOK
	}
	if !urgency.Valid() {
		return nil, ErrInvalidUrgency
	}

	var msg *string
	if message != nil {
		trimmed := strings.TrimSpace(*message)
		if utf8.RuneCountInString(trimmed) > MaxMessageLen {
			return nil, ErrMessageTooLong
		}
		if trimmed != "" {
			msg = &trimmed
		}
	}

	hr, err := s.requests.Create(dependentID, msg, urgency)
	if err != nil {
		return nil, fmt.Errorf("create help request: %w", err)
	}

	s.publish("new", hr)
	return hr, nil
}

// ListForDependent returns the dependent's own requests, newest first.
func (s *Service) ListForDependent(dependentID int64) ([]model.HelpRequest, error) {
	list, err := s.requests.ListForDependent(dependentID)
	if err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	return list, nil
}

// ListForSupervisor returns requests of every actively linked dependent.
func (s *Service) ListForSupervisor(supervisorID int64) ([]model.HelpRequest, error) {
	list, err := s.requests.ListForSupervisor(supervisorID)
	if err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	return list, nil
}

// Get returns a single request visible to the viewer: its owner, or a
// supervisor actively linked to the owner.
func (s *Service) Get(viewerID int64, role model.Role, id int64) (*model.HelpRequest, error) {
	hr, err := s.requests.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get help request: %w", err)
	}
	if hr == nil {
		return nil, ErrNotFound
	}

	switch {
	case role.IsDependent():
		if hr.DependentID != viewerID {
			return nil, ErrForbidden
		}
	case role.IsSupervisor():
		if err := s.requireActiveLink(viewerID, hr.DependentID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}
	return hr, nil
}

// Transition moves a request to answered or closed on behalf of a supervisor.
// The link check comes first so an unlinked supervisor always sees
// ErrForbidden, whatever the request's status.
func (s *Service) Transition(supervisorID, requestID int64, to model.HelpStatus) (*model.HelpRequest, error) {
	if to != model.HelpAnswered && to != model.HelpClosed {
		return nil, ErrInvalidTransition
	}

	hr, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("get help request: %w", err)
	}
	if hr == nil {
		return nil, ErrNotFound
	}
	if err := s.requireActiveLink(supervisorID, hr.DependentID); err != nil {
		return nil, err
	}

	// The store update is a compare-and-set on the current status; a lost
	// race re-reads and re-validates against the new status.
	for attempt := 0; attempt < 3; attempt++ {
		if !CanTransition(hr.Status, to) {
			return nil, ErrInvalidTransition
		}
		applied, err := s.requests.Transition(hr.ID, hr.Status, to, supervisorID, s.now())
		if err != nil {
			return nil, fmt.Errorf("transition help request: %w", err)
		}
		hr, err = s.requests.GetByID(requestID)
		if err != nil {
			return nil, fmt.Errorf("get help request: %w", err)
		}
		if hr == nil {
			return nil, ErrNotFound
		}
		if applied {
			s.logger.Info("help request transitioned", "id", hr.ID, "status", string(hr.Status), "resolved_by", supervisorID)
			s.publish("updated", hr)
			return hr, nil
		}
	}
	return nil, ErrInvalidTransition
}

func (s *Service) requireActiveLink(supervisorID, dependentID int64) error {
	ok, err := s.links.IsActive(supervisorID, dependentID)
	if err != nil {
		return fmt.Errorf("check link: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// publish sends the request to the dependent's room and to the room of each
// supervisor actively linked at this moment.
func (s *Service) publish(action string, hr *model.HelpRequest) {
	msg := realtime.NewMessage("help_request", action, hr)
	delivered := s.emitter.EmitToRoom(realtime.DependentRoom(hr.DependentID), msg)

	supervisors, err := s.links.ActiveSupervisorIDs(hr.DependentID)
	if err != nil {
		s.logger.Error("list supervisors for fan-out", "help_request_id", hr.ID, "error", err)
		return
	}
	for _, id := range supervisors {
		delivered += s.emitter.EmitToRoom(realtime.SupervisorRoom(id), msg)
	}
	s.logger.Debug("help request published", "event", msg.Event, "id", hr.ID, "supervisors", len(supervisors), "delivered", delivered)
}
