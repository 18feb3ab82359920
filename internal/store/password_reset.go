package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/helpline/internal/model"
)

type PasswordResetStore struct {
	db *sql.DB
}

func NewPasswordResetStore(db *sql.DB) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

func scanPasswordReset(scanner interface{ Scan(...any) error }) (*model.PasswordReset, error) {
	var pr model.PasswordReset
	var usedAt sql.NullTime

	err := scanner.Scan(&pr.ID, &pr.AccountID, &pr.TokenHash, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return &pr, nil
}

const passwordResetCols = `id, account_id, token_hash, expires_at, used_at, created_at`

// Create stores a reset token hash for the account. Any earlier pending
// tokens for the same account are invalidated first.
func (s *PasswordResetStore) Create(accountID int64, tokenHash string, ttl time.Duration) (*model.PasswordReset, error) {
	_, err := s.db.Exec(
		`UPDATE password_resets SET used_at = ? WHERE account_id = ? AND used_at IS NULL`,
		time.Now().UTC(), accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous resets: %w", err)
	}

	expiresAt := time.Now().UTC().Add(ttl)
	result, err := s.db.Exec(
		`INSERT INTO password_resets (account_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		accountID, tokenHash, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert password reset: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+passwordResetCols+` FROM password_resets WHERE id = ?`, id)
	return scanPasswordReset(row)
}

// GetValid returns the unused, unexpired reset for the hash, or nil.
func (s *PasswordResetStore) GetValid(tokenHash string) (*model.PasswordReset, error) {
	row := s.db.QueryRow(
		`SELECT `+passwordResetCols+` FROM password_resets WHERE token_hash = ? AND used_at IS NULL`,
		tokenHash,
	)
	pr, err := scanPasswordReset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get password reset: %w", err)
	}
	if !pr.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return pr, nil
}

// MarkUsed consumes the reset. It returns false if it was already used.
func (s *PasswordResetStore) MarkUsed(id int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE password_resets SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark password reset used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *PasswordResetStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM password_resets WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
