package domain

import "time"

// RefreshToken is a stored single-use credential that can be exchanged for a
// fresh token pair. The value itself is the primary key; it is never stored
// in any derived or hashed form because it is already a random secret.
type RefreshToken struct {
	Value     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token's lifetime has passed at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// TokenPair is the credential set returned by login, sign-up and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
