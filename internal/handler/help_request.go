package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/helpline/internal/auth"
	"github.com/dukerupert/helpline/internal/model"
)

type HelpRequestService interface {
	Create(dependentID int64, message *string, urgency model.Urgency) (*model.HelpRequest, error)
	ListForDependent(dependentID int64) ([]model.HelpRequest, error)
	ListForSupervisor(supervisorID int64) ([]model.HelpRequest, error)
	Get(viewerID int64, role model.Role, id int64) (*model.HelpRequest, error)
	Transition(supervisorID, requestID int64, to model.HelpStatus) (*model.HelpRequest, error)
}

type HelpRequestHandler struct {
	svc    HelpRequestService
	logger *slog.Logger
}

func NewHelpRequestHandler(svc HelpRequestService, logger *slog.Logger) *HelpRequestHandler {
	return &HelpRequestHandler{svc: svc, logger: logger}
}

type helpRequestCreate struct {
	Message *string       `json:"message"`
	Urgency model.Urgency `json:"urgency"`
}

func (h *HelpRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req helpRequestCreate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hr, err := h.svc.Create(auth.AccountID(r.Context()), req.Message, req.Urgency)
	if err != nil {
		writeDomainError(w, h.logger, "create help request", err)
		return
	}
	writeJSON(w, http.StatusCreated, hr)
}

func (h *HelpRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var list []model.HelpRequest
	var err error
	switch {
	case ac.Role.IsDependent():
		list, err = h.svc.ListForDependent(ac.AccountID)
	case ac.Role.IsSupervisor():
		list, err = h.svc.ListForSupervisor(ac.AccountID)
	default:
		writeError(w, http.StatusForbidden, "unknown role")
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, "list help requests", err)
		return
	}
	if list == nil {
		list = []model.HelpRequest{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *HelpRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ac, _ := auth.FromContext(r.Context())

	hr, err := h.svc.Get(ac.AccountID, ac.Role, id)
	if err != nil {
		writeDomainError(w, h.logger, "get help request", err)
		return
	}
	writeJSON(w, http.StatusOK, hr)
}

func (h *HelpRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status model.HelpStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hr, err := h.svc.Transition(auth.AccountID(r.Context()), id, req.Status)
	if err != nil {
		writeDomainError(w, h.logger, "transition help request", err)
		return
	}
	writeJSON(w, http.StatusOK, hr)
}
