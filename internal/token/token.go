// Package token issues and verifies the bearer credentials shared by the
// REST API and realtime handshakes.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dukerupert/helpline/internal/model"
)

// MinSecretLen is the shortest accepted HS256 signing key.
const MinSecretLen = 32

var (
	ErrInvalid         = errors.New("invalid credential")
	ErrExpired         = errors.New("credential expired")
	ErrMalformed       = errors.New("malformed credential")
	ErrAccountNotFound = errors.New("account not found")
)

// AccountLookup resolves the account a credential refers to.
type AccountLookup interface {
	GetByID(id int64) (*model.Account, error)
}

type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Credential is an issued bearer token and its expiry.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity is the result of a successful verification.
type Identity struct {
	Account   *model.Account
	TokenID   string
	ExpiresAt time.Time
}

type Service struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	accounts AccountLookup
	now      func() time.Time
}

func NewService(cfg Config, accounts AccountLookup) (*Service, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLen)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &Service{
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		ttl:      cfg.TTL,
		accounts: accounts,
		now:      time.Now,
	}, nil
}

// Issue signs a credential binding accountID and role.
func (s *Service) Issue(accountID int64, role model.Role) (Credential, error) {
	if !role.Valid() {
		return Credential{}, fmt.Errorf("issue credential: invalid role %d", role)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Credential{}, fmt.Errorf("sign credential: %w", err)
	}
	return Credential{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Verify checks signature and expiry, then confirms the account still exists
// with the role the credential was issued for.
func (s *Service) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMalformed
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrInvalid
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ExpiresAt == nil {
		return nil, ErrInvalid
	}
	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalid
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrInvalid
	}

	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if account.Role != role {
		return nil, ErrInvalid
	}

	return &Identity{
		Account:   account,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IsAuthError reports whether err means the caller is not authenticated, as
// opposed to an infrastructure failure during lookup.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrAccountNotFound)
}
