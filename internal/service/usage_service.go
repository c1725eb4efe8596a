package service

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/repository"
)

type UsageService interface {
	// ResetExpiredUsage zeroes the counters of every user whose usage window
	// has elapsed and returns how many users were reset.
	ResetExpiredUsage(ctx context.Context) (int64, error)
}

type usageService struct {
	u     repository.UserRepository
	clock clock.Clock
}

func NewUsageService(u repository.UserRepository, clk clock.Clock) UsageService {
	return &usageService{u: u, clock: clk}
}

func (s *usageService) ResetExpiredUsage(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	return s.u.ResetUsage(ctx, now.Add(-models.UsageWindow), now)
}
