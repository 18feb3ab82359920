package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/helpline/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var role string
	err := scanner.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Role, err = model.ParseRole(role); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var role string
	var code sql.NullString
	err := scanner.Scan(&p.ID, &p.AccountID, &p.Handle, &role, &code, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.Role, err = model.ParseRole(role); err != nil {
		return nil, err
	}
	p.PairingCode = code.String
	return &p, nil
}

const accountCols = `id, email, password_hash, role, created_at, updated_at`
const profileCols = `id, account_id, handle, role, pairing_code, created_at`

// CreateWithProfile inserts an account and its profile in one transaction.
// A unique violation on email, handle or pairing_code returns a *ConflictError
// and leaves nothing behind.
func (s *AccountStore) CreateWithProfile(email, passwordHash string, role model.Role, handle, pairingCode string) (*model.Account, *model.Profile, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO accounts (email, password_hash, role) VALUES (?, ?, ?)`,
		strings.TrimSpace(email), passwordHash, role.String(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert account: %w", asConflict(err))
	}
	accountID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	var code sql.NullString
	if pairingCode != "" {
		code = sql.NullString{String: pairingCode, Valid: true}
	}
	if _, err := tx.Exec(
		`INSERT INTO profiles (account_id, handle, role, pairing_code) VALUES (?, ?, ?, ?)`,
		accountID, handle, role.String(), code,
	); err != nil {
		return nil, nil, fmt.Errorf("insert profile: %w", asConflict(err))
	}

	account, err := scanAccount(tx.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, accountID))
	if err != nil {
		return nil, nil, fmt.Errorf("read account: %w", err)
	}
	profile, err := scanProfile(tx.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE account_id = ?`, accountID))
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return account, profile, nil
}

func (s *AccountStore) GetByID(id int64) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(email string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE email = ?`, strings.TrimSpace(email))
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (s *AccountStore) UpdatePassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE accounts SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AccountStore) GetProfile(accountID int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE account_id = ?`, accountID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetProfileByCode resolves a pairing code issued to one of the given roles.
// Codes are stored upper-case; the caller normalizes input.
func (s *AccountStore) GetProfileByCode(code string, roles ...model.Role) (*model.Profile, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := []any{code}
	placeholders := make([]string, len(roles))
	for i, r := range roles {
		placeholders[i] = "?"
		args = append(args, r.String())
	}
	row := s.db.QueryRow(
		`SELECT `+profileCols+` FROM profiles WHERE pairing_code = ? AND role IN (`+strings.Join(placeholders, ", ")+`)`,
		args...,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by code: %w", err)
	}
	return p, nil
}
