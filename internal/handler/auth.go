package handler

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/helpline/internal/auth"
	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/pairing"
	"github.com/dukerupert/helpline/internal/token"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
	maxHandleLen     = 32
)

type AccountStore interface {
	GetByID(id int64) (*model.Account, error)
	GetByEmail(email string) (*model.Account, error)
	GetProfile(accountID int64) (*model.Profile, error)
	UpdatePassword(id int64, passwordHash string) error
}

type ResetStore interface {
	Create(accountID int64, tokenHash string, ttl time.Duration) (*model.PasswordReset, error)
	GetValid(tokenHash string) (*model.PasswordReset, error)
	MarkUsed(id int64) (bool, error)
}

type Registrar interface {
	CreateAccount(ctx context.Context, in pairing.NewAccount) (*model.Account, *model.Profile, error)
}

type Issuer interface {
	Issue(accountID int64, role model.Role) (token.Credential, error)
}

type Mailer interface {
	Configured() bool
	SendPasswordReset(ctx context.Context, toEmail, token string, ttl time.Duration) error
}

type AuthHandler struct {
	accounts  AccountStore
	resets    ResetStore
	registrar Registrar
	issuer    Issuer
	mailer    Mailer
	resetTTL  time.Duration
	logger    *slog.Logger
}

func NewAuthHandler(accounts AccountStore, resets ResetStore, registrar Registrar, issuer Issuer, mailer Mailer, resetTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		resets:    resets,
		registrar: registrar,
		issuer:    issuer,
		mailer:    mailer,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Handle   string `json:"handle"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   *model.Account `json:"account"`
	Profile   *model.Profile `json:"profile"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Handle = strings.TrimSpace(req.Handle)
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Handle == "" || utf8.RuneCountInString(req.Handle) > maxHandleLen {
		writeError(w, http.StatusBadRequest, "handle must be 1 to 32 characters")
		return
	}
	if msg := checkPassword(req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "role must be student, caregiver, or educator")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	account, profile, err := h.registrar.CreateAccount(r.Context(), pairing.NewAccount{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Handle:       req.Handle,
	})
	if err != nil {
		writeDomainError(w, h.logger, "signup", err)
		return
	}

	h.logger.Info("account created", "account_id", account.ID, "role", role.String())
	h.writeSession(w, http.StatusCreated, account, profile)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	account, err := h.accounts.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	profile, err := h.accounts.GetProfile(account.ID)
	if err != nil {
		h.logger.Error("login profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeSession(w, http.StatusOK, account, profile)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, account *model.Account, profile *model.Profile) {
	cred, err := h.issuer.Issue(account.ID, account.Role)
	if err != nil {
		h.logger.Error("issue credential", "account_id", account.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, sessionResponse{
		Token:     cred.Token,
		ExpiresAt: cred.ExpiresAt,
		Account:   account,
		Profile:   profile,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.AccountID(r.Context())
	account, err := h.accounts.GetByID(id)
	if err != nil {
		h.logger.Error("me account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, token.ErrAccountNotFound.Error())
		return
	}
	profile, err := h.accounts.GetProfile(id)
	if err != nil {
		h.logger.Error("me profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account, "profile": profile})
}

// RequestPasswordReset always answers 202 so callers cannot probe which
// emails are registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	defer w.WriteHeader(http.StatusAccepted)

	account, err := h.accounts.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("reset lookup", "error", err)
		return
	}
	if account == nil {
		return
	}

	raw, err := newResetToken()
	if err != nil {
		h.logger.Error("generate reset token", "error", err)
		return
	}
	if _, err := h.resets.Create(account.ID, hashResetToken(raw), h.resetTTL); err != nil {
		h.logger.Error("create reset", "account_id", account.ID, "error", err)
		return
	}

	if !h.mailer.Configured() {
		h.logger.Warn("email not configured, reset token not sent", "account_id", account.ID, "token", raw)
		return
	}
	if err := h.mailer.SendPasswordReset(r.Context(), account.Email, raw, h.resetTTL); err != nil {
		h.logger.Error("send reset email", "account_id", account.ID, "error", err)
	}
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := checkPassword(req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}

	reset, err := h.resets.GetValid(hashResetToken(req.Token))
	if err != nil {
		h.logger.Error("reset lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if reset == nil {
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}

	consumed, err := h.resets.MarkUsed(reset.ID)
	if err != nil {
		h.logger.Error("consume reset", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !consumed {
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.accounts.UpdatePassword(reset.AccountID, string(hash)); err != nil {
		h.logger.Error("update password", "account_id", reset.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("password reset", "account_id", reset.AccountID)
	w.WriteHeader(http.StatusNoContent)
}

func checkPassword(pw string) string {
	switch {
	case utf8.RuneCountInString(pw) < minPasswordLen:
		return "password must be at least 8 characters"
	case len(pw) > maxPasswordBytes:
		return "password must be at most 72 bytes"
	}
	return ""
}

func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
