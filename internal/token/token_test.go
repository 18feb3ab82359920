package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/helpline/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeAccounts map[int64]*model.Account

func (f fakeAccounts) GetByID(id int64) (*model.Account, error) {
	return f[id], nil
}

func newTestService(t *testing.T, accounts fakeAccounts) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: []byte(testSecret), Issuer: "helpline", TTL: time.Hour}, accounts)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	accounts := fakeAccounts{7: {ID: 7, Role: model.RoleSupervisor}}
	svc := newTestService(t, accounts)

	cred, err := svc.Issue(7, model.RoleSupervisor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cred.ExpiresAt.Before(time.Now().Add(59 * time.Minute)) {
		t.Errorf("expires_at = %v, want about one hour from now", cred.ExpiresAt)
	}

	id, err := svc.Verify(cred.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Account.ID != 7 {
		t.Errorf("account id = %d, want 7", id.Account.ID)
	}
	if id.TokenID == "" {
		t.Error("expected a token id")
	}
}

func TestVerifyFailures(t *testing.T) {
	accounts := fakeAccounts{1: {ID: 1, Role: model.RoleDependent}}
	svc := newTestService(t, accounts)

	good, _ := svc.Issue(1, model.RoleDependent)
	gone, _ := svc.Issue(2, model.RoleDependent)
	wrongRole, _ := svc.Issue(1, model.RoleEducator)

	other, _ := NewService(Config{Secret: []byte(strings.Repeat("x", 32)), Issuer: "helpline", TTL: time.Hour}, accounts)
	foreign, _ := other.Issue(1, model.RoleDependent)

	past := newTestService(t, accounts)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := past.Issue(1, model.RoleDependent)

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             "student",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "helpline", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMalformed},
		{"garbage", "not-a-token", ErrMalformed},
		{"tampered", good.Token[:len(good.Token)-2] + "xx", ErrInvalid},
		{"foreign key", foreign.Token, ErrInvalid},
		{"alg none", unsigned, ErrInvalid},
		{"expired", expired.Token, ErrExpired},
		{"deleted account", gone.Token, ErrAccountNotFound},
		{"role mismatch", wrongRole.Token, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !IsAuthError(err) {
				t.Errorf("IsAuthError(%v) = false, want true", err)
			}
		})
	}
}

func TestNewServiceRejectsShortSecret(t *testing.T) {
	_, err := NewService(Config{Secret: []byte("short"), TTL: time.Hour}, fakeAccounts{})
	if err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestIssueRejectsInvalidRole(t *testing.T) {
	svc := newTestService(t, fakeAccounts{})
	if _, err := svc.Issue(1, model.Role(0)); err == nil {
		t.Fatal("expected error for zero role")
	}
}
