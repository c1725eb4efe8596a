package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/repository"
	"github.com/maheshrc27/autopost/internal/service"
)

const (
	refreshAhead     = 30 * time.Minute
	refreshBatchSize = 10
)

// TokenRefreshJob renews YouTube tokens shortly before they expire so uploads
// rarely have to refresh inline.
type TokenRefreshJob struct {
	cr    repository.ChannelRepository
	ts    service.TokenService
	clock clock.Clock
}

func NewTokenRefreshJob(cr repository.ChannelRepository, ts service.TokenService, clk clock.Clock) *TokenRefreshJob {
	return &TokenRefreshJob{
		cr:    cr,
		ts:    ts,
		clock: clk,
	}
}

// RefreshTokens is the cron entry point.
func (c *TokenRefreshJob) RefreshTokens() {
	c.Run(context.Background())
}

// Run refreshes every channel expiring within the next 30 minutes and returns
// how many were refreshed.
func (c *TokenRefreshJob) Run(ctx context.Context) int {
	channels, err := c.cr.ListExpiring(ctx, models.PlatformYoutube, c.clock.Now().Add(refreshAhead))
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)
	semaphore := make(chan struct{}, refreshBatchSize)

	for _, ch := range channels {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(ch *models.Channel) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := c.ts.RefreshYoutubeToken(ctx, ch); err != nil {
				slog.Info("Unable to refresh tokens for YouTube", "channel_id", ch.ID, "error", err)
				return
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	if len(channels) > 0 {
		slog.Info("refreshed expiring youtube tokens", "refreshed", refreshed, "due", len(channels))
	}
	return refreshed
}
