package models

import (
	"fmt"
	"time"
)

type Platform string

const (
	PlatformYoutube  Platform = "youtube"
	PlatformFacebook Platform = "facebook"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case PlatformYoutube, PlatformFacebook:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Channel is an OAuth-authorized connection between a user and one platform
// account or page. Tokens are stored encrypted.
type Channel struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Platform     Platform   `db:"platform" json:"platform"`
	ChannelID    string     `db:"channel_id" json:"channel_id"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

func (c *Channel) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
