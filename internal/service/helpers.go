package service

import (
	"time"
)

const defaultTokenLifetime = 3600 * time.Second

// GetExpiresAt turns a provider expiry offset into an absolute time. Providers
// that omit the offset get the one-hour default.
func GetExpiresAt(now time.Time, expiresIn time.Duration) time.Time {
	if expiresIn <= 0 {
		expiresIn = defaultTokenLifetime
	}
	return now.Add(expiresIn)
}
