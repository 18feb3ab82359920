package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/helpline/internal/helprequest"
	"github.com/dukerupert/helpline/internal/pairing"
	"github.com/dukerupert/helpline/internal/store"
	"github.com/dukerupert/helpline/internal/token"
)

const maxBodyBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a domain error to its HTTP status. Anything it does
// not recognise is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, pairing.ErrCodeNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, helprequest.ErrInvalidTransition),
		errors.Is(err, helprequest.ErrInvalidUrgency),
		errors.Is(err, helprequest.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, helprequest.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, helprequest.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, conflictMessage(err))
	case token.IsAuthError(err):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func conflictMessage(err error) string {
	col, _ := store.ConflictColumn(err)
	switch col {
	case "email":
		return "email already registered"
	case "handle":
		return "handle already taken"
	default:
		return "conflict"
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
