package model

import "time"

type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Profile struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Handle      string    `json:"handle"`
	Role        Role      `json:"role"`
	PairingCode string    `json:"pairing_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileSummary is the public view of a linked peer.
type ProfileSummary struct {
	AccountID int64  `json:"id"`
	Handle    string `json:"handle"`
	Role      Role   `json:"role"`
}

func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{AccountID: p.AccountID, Handle: p.Handle, Role: p.Role}
}

type PasswordReset struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"account_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}
