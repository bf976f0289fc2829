package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash; the
// profile fields are mirrored into the "user" data category on update
// so they reach other devices through normal sync.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname,omitempty"`
	Tagline      string    `json:"tagline,omitempty"`
	AvatarID     string    `json:"avatar_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is a stored session-continuation token.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
