package models

import "time"

// RefreshToken is one login session. A user may hold several concurrent
// records, one per device.
type RefreshToken struct {
	TokenNo               int64
	UserNo                int64
	RefreshToken          string
	ClientOS              string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	CreatedAt             time.Time
}
