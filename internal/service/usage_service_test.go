package service

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepository struct {
	users     []*models.UserUsage
	gotCutoff time.Time
}

func (f *fakeUserRepository) ResetUsage(ctx context.Context, cutoff, now time.Time) (int64, error) {
	f.gotCutoff = cutoff
	var n int64
	for _, u := range f.users {
		if u.PricingPlanID != nil && (u.LastResetDate == nil || !u.LastResetDate.After(cutoff)) {
			u.CreditUsed = 0
			u.CapacityUsed = 0
			reset := now
			u.LastResetDate = &reset
			n++
		}
	}
	return n, nil
}

func TestResetExpiredUsage(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	now := clk.Now()

	plan := int64(1)
	recentReset := now.Add(-29 * 24 * time.Hour)
	staleReset := now.Add(-31 * 24 * time.Hour)
	recent := &models.UserUsage{ID: 1, CreditUsed: 4, PricingPlanID: &plan, LastResetDate: &recentReset}
	stale := &models.UserUsage{ID: 2, CreditUsed: 9, CapacityUsed: 100, PricingPlanID: &plan, LastResetDate: &staleReset}
	free := &models.UserUsage{ID: 3, CreditUsed: 2, LastResetDate: &staleReset}
	repo := &fakeUserRepository{users: []*models.UserUsage{recent, stale, free}}

	n, err := NewUsageService(repo, clk).ResetExpiredUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, now.Add(-30*24*time.Hour), repo.gotCutoff)

	assert.Equal(t, 4, recent.CreditUsed)
	assert.Equal(t, 2, free.CreditUsed)
	assert.Equal(t, 0, stale.CreditUsed)
	assert.Equal(t, 0, stale.CapacityUsed)
	require.NotNil(t, stale.LastResetDate)
	assert.Equal(t, now, *stale.LastResetDate)
}

func TestGetExpiresAt(t *testing.T) {
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), GetExpiresAt(now, 0))
	assert.Equal(t, now.Add(time.Minute), GetExpiresAt(now, time.Minute))
}
