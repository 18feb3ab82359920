// Package pairing issues pairing codes and turns a redeemed code into an
// active link between a dependent and a supervisor.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/realtime"
	"github.com/dukerupert/helpline/internal/store"
)

var ErrCodeNotFound = errors.New("pairing code not found")

const (
	maxCodeAttempts = 5
	codeRetryDelay  = 10 * time.Millisecond
)

type AccountStore interface {
	CreateWithProfile(email, passwordHash string, role model.Role, handle, pairingCode string) (*model.Account, *model.Profile, error)
	GetProfileByCode(code string, roles ...model.Role) (*model.Profile, error)
}

type LinkStore interface {
	Activate(supervisorID, dependentID int64) (*model.Link, error)
}

// NewAccount is the input to CreateAccount. PasswordHash is already hashed.
type NewAccount struct {
	Email        string
	PasswordHash string
	Role         model.Role
	Handle       string
}

type Resolver struct {
	accounts AccountStore
	links    LinkStore
	emitter  realtime.Emitter
	generate func(model.Role) (string, error)
	logger   *slog.Logger
}

func NewResolver(accounts AccountStore, links LinkStore, emitter realtime.Emitter, logger *slog.Logger) *Resolver {
	return &Resolver{
		accounts: accounts,
		links:    links,
		emitter:  emitter,
		generate: GenerateCode,
		logger:   logger,
	}
}

// CreateAccount stores a new account with its profile and pairing code. A
// colliding code is regenerated and the insert retried; any other conflict
// (email, handle) is returned as is.
func (r *Resolver) CreateAccount(ctx context.Context, in NewAccount) (*model.Account, *model.Profile, error) {
	var account *model.Account
	var profile *model.Profile

	backoff := retry.WithMaxRetries(maxCodeAttempts-1, retry.NewConstant(codeRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := r.generate(in.Role)
		if err != nil {
			return err
		}
		a, p, err := r.accounts.CreateWithProfile(in.Email, in.PasswordHash, in.Role, in.Handle, code)
		if col, ok := store.ConflictColumn(err); ok && col == store.PairingCodeColumn {
			r.logger.Warn("pairing code collision, regenerating", "role", in.Role.String())
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		account, profile = a, p
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create account: %w", err)
	}
	return account, profile, nil
}

// RedeemDependentCode links the supervisor to the dependent owning code.
func (r *Resolver) RedeemDependentCode(supervisorID int64, code string) (*model.Link, *model.Profile, error) {
	dependent, err := r.lookup(code, model.RoleDependent)
	if err != nil {
		return nil, nil, err
	}
	link, err := r.activate(supervisorID, dependent.AccountID)
	if err != nil {
		return nil, nil, err
	}
	return link, dependent, nil
}

// RedeemSupervisorCode links the dependent to the supervisor owning code.
func (r *Resolver) RedeemSupervisorCode(dependentID int64, code string) (*model.Link, *model.Profile, error) {
	supervisor, err := r.lookup(code, model.RoleSupervisor, model.RoleEducator)
	if err != nil {
		return nil, nil, err
	}
	link, err := r.activate(supervisor.AccountID, dependentID)
	if err != nil {
		return nil, nil, err
	}
	return link, supervisor, nil
}

func (r *Resolver) lookup(code string, roles ...model.Role) (*model.Profile, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrCodeNotFound
	}
	p, err := r.accounts.GetProfileByCode(normalized, roles...)
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if p == nil {
		return nil, ErrCodeNotFound
	}
	return p, nil
}

func (r *Resolver) activate(supervisorID, dependentID int64) (*model.Link, error) {
	link, err := r.links.Activate(supervisorID, dependentID)
	if err != nil {
		return nil, fmt.Errorf("activate link: %w", err)
	}

	msg := realtime.NewMessage("connection", "created", map[string]int64{
		"caregiver_id": link.SupervisorID,
		"student_id":   link.DependentID,
	})
	r.emitter.EmitToRoom(realtime.SupervisorRoom(link.SupervisorID), msg)
	r.emitter.EmitToRoom(realtime.DependentRoom(link.DependentID), msg)

	r.logger.Info("link activated", "link_id", link.ID, "caregiver_id", link.SupervisorID, "student_id", link.DependentID)
	return link, nil
}
