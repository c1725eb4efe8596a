package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/getsentry/sentry-go"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/service"
	"github.com/maheshrc27/autopost/internal/transfer"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownPlatform = errors.New("no scheduler registered for platform")

// Pass is one platform's publishing pass.
type Pass interface {
	Platform() models.Platform
	Run(ctx context.Context) (*transfer.PassResult, error)
}

// Scheduler drives one timer per platform. Every tick starts a pass in its own
// goroutine, so a slow pass never delays the next tick.
type Scheduler struct {
	clock    clock.Clock
	interval time.Duration
	usage    service.UsageService
	passes   map[models.Platform]Pass
	order    []models.Platform

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	tickers  []*clock.Ticker
	loops    sync.WaitGroup
	inflight sync.WaitGroup
	last     map[models.Platform]*transfer.PassResult
}

func NewScheduler(clk clock.Clock, interval time.Duration, usage service.UsageService, passes ...Pass) *Scheduler {
	s := &Scheduler{
		clock:    clk,
		interval: interval,
		usage:    usage,
		passes:   make(map[models.Platform]Pass, len(passes)),
		last:     make(map[models.Platform]*transfer.PassResult, len(passes)),
	}
	for _, p := range passes {
		s.passes[p.Platform()] = p
		s.order = append(s.order, p.Platform())
	}
	return s
}

// Start arms the timers. It reports false when they are already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.tickers = s.tickers[:0]
	for _, platform := range s.order {
		ticker := s.clock.Ticker(s.interval)
		s.tickers = append(s.tickers, ticker)
		s.loops.Add(1)
		go s.loop(ctx, ticker, s.passes[platform])
	}
	s.running = true

	slog.Info("scheduler started", "interval", s.interval.String(), "platforms", s.order)
	return true
}

// Stop disarms the timers and waits for passes already under way. Posts those
// passes had not started yet go back to scheduled.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	for _, t := range s.tickers {
		t.Stop()
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.loops.Wait()
	s.inflight.Wait()

	slog.Info("scheduler stopped")
	return true
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, ticker *clock.Ticker, pass Pass) {
	defer s.loops.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				if _, err := s.run(ctx, pass); err != nil {
					slog.Error("scheduled pass failed", "platform", pass.Platform(), "error", err)
				}
			}()
		}
	}
}

// RunOnce runs a single pass for the platform right away, independent of the
// timers.
func (s *Scheduler) RunOnce(ctx context.Context, platform models.Platform) (*transfer.PassResult, error) {
	pass, ok := s.passes[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	return s.run(ctx, pass)
}

// RunAll runs one pass per platform concurrently. A failing pass does not stop
// the others; the first error is returned alongside every result.
func (s *Scheduler) RunAll(ctx context.Context) ([]*transfer.PassResult, error) {
	results := make([]*transfer.PassResult, len(s.order))

	var g errgroup.Group
	for i, platform := range s.order {
		pass := s.passes[platform]
		g.Go(func() error {
			r, err := s.run(ctx, pass)
			results[i] = r
			return err
		})
	}
	err := g.Wait()
	return results, err
}

func (s *Scheduler) run(ctx context.Context, pass Pass) (*transfer.PassResult, error) {
	var reset int64
	if s.usage != nil {
		n, err := s.usage.ResetExpiredUsage(ctx)
		if err != nil {
			slog.Error("resetting usage failed", "error", err)
			sentry.CaptureException(fmt.Errorf("reset usage: %w", err))
		} else {
			reset = n
			if n > 0 {
				slog.Info("usage reset", "users", n)
			}
		}
	}

	result, err := pass.Run(ctx)
	if result != nil {
		result.UsageReset = reset
		s.mu.Lock()
		s.last[pass.Platform()] = result
		s.mu.Unlock()
	}
	return result, err
}

func (s *Scheduler) Status() transfer.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := make(map[string]*transfer.PassResult, len(s.last))
	for platform, r := range s.last {
		last[string(platform)] = r
	}
	return transfer.SchedulerStatus{
		Running:    s.running,
		Interval:   s.interval.String(),
		LastPasses: last,
	}
}
