package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/helpline/internal/auth"
	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/store"
)

type Redeemer interface {
	RedeemDependentCode(supervisorID int64, code string) (*model.Link, *model.Profile, error)
	RedeemSupervisorCode(dependentID int64, code string) (*model.Link, *model.Profile, error)
}

type LinkStore interface {
	GetByID(id int64) (*model.Link, error)
	UpdateStatus(id int64, status model.LinkStatus) (*model.Link, error)
	ListForSupervisor(supervisorID int64, status model.LinkStatus) ([]store.LinkPeer, error)
	ListForDependent(dependentID int64, status model.LinkStatus) ([]store.LinkPeer, error)
}

type ConnectionHandler struct {
	resolver Redeemer
	links    LinkStore
	logger   *slog.Logger
}

func NewConnectionHandler(resolver Redeemer, links LinkStore, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{resolver: resolver, links: links, logger: logger}
}

// connectionView renders a link from one endpoint's point of view: a
// caregiver sees the student, a student sees the caregiver.
type connectionView struct {
	ID          int64                 `json:"id"`
	CaregiverID int64                 `json:"caregiver_id"`
	StudentID   int64                 `json:"student_id"`
	Status      model.LinkStatus      `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Student     *model.ProfileSummary `json:"student,omitempty"`
	Caregiver   *model.ProfileSummary `json:"caregiver,omitempty"`
}

func newConnectionView(l *model.Link, viewer model.Role, peer model.ProfileSummary) connectionView {
	v := connectionView{
		ID:          l.ID,
		CaregiverID: l.SupervisorID,
		StudentID:   l.DependentID,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if viewer.IsDependent() {
		v.Caregiver = &peer
	} else {
		v.Student = &peer
	}
	return v
}

type codeRequest struct {
	Code string `json:"code"`
}

// ByStudentCode links the calling caregiver or educator to a student.
func (h *ConnectionHandler) ByStudentCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ac, _ := auth.FromContext(r.Context())

	link, student, err := h.resolver.RedeemDependentCode(ac.AccountID, req.Code)
	if err != nil {
		writeDomainError(w, h.logger, "redeem student code", err)
		return
	}
	writeJSON(w, http.StatusOK, newConnectionView(link, ac.Role, student.Summary()))
}

// ByCaregiverCode links the calling student to a caregiver or educator.
func (h *ConnectionHandler) ByCaregiverCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ac, _ := auth.FromContext(r.Context())

	link, supervisor, err := h.resolver.RedeemSupervisorCode(ac.AccountID, req.Code)
	if err != nil {
		writeDomainError(w, h.logger, "redeem caregiver code", err)
		return
	}
	writeJSON(w, http.StatusOK, newConnectionView(link, ac.Role, supervisor.Summary()))
}

func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	status := model.LinkStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be pending, active, or blocked")
		return
	}

	var peers []store.LinkPeer
	var err error
	switch {
	case ac.Role.IsDependent():
		peers, err = h.links.ListForDependent(ac.AccountID, status)
	case ac.Role.IsSupervisor():
		peers, err = h.links.ListForSupervisor(ac.AccountID, status)
	default:
		writeError(w, http.StatusForbidden, "unknown role")
		return
	}
	if err != nil {
		h.logger.Error("list connections", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}

	views := make([]connectionView, 0, len(peers))
	for i := range peers {
		views = append(views, newConnectionView(&peers[i].Link, ac.Role, peers[i].Peer))
	}
	writeJSON(w, http.StatusOK, views)
}

// UpdateStatus lets either endpoint of a link change its status.
func (h *ConnectionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status model.LinkStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be pending, active, or blocked")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	link, err := h.links.GetByID(id)
	if err != nil {
		h.logger.Error("get connection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get connection")
		return
	}
	if link == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	if !link.Involves(ac.AccountID) {
		writeError(w, http.StatusForbidden, "not a participant in this connection")
		return
	}

	updated, err := h.links.UpdateStatus(id, req.Status)
	if err != nil {
		h.logger.Error("update connection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update connection")
		return
	}
	h.logger.Info("connection status changed", "link_id", id, "status", string(req.Status), "by", ac.AccountID)
	writeJSON(w, http.StatusOK, updated)
}
