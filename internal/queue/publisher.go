package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/getsentry/sentry-go"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Publisher runs publishing passes for one platform: claim every due post,
// hand each to the worker through the limiter and write back where it ended up.
type Publisher[P models.ScheduledPost] struct {
	platform models.Platform
	store    PostStore[P]
	worker   Worker[P]
	limiter  *Limiter
	clock    clock.Clock
}

func NewPublisher[P models.ScheduledPost](
	platform models.Platform,
	store PostStore[P],
	worker Worker[P],
	limiter *Limiter,
	clk clock.Clock) *Publisher[P] {
	return &Publisher[P]{
		platform: platform,
		store:    store,
		worker:   worker,
		limiter:  limiter,
		clock:    clk,
	}
}

func (p *Publisher[P]) Platform() models.Platform {
	return p.platform
}

// Run performs one pass and blocks until every claimed post has been written
// back. Cancelling ctx stops admitting posts; those not yet started return to
// scheduled. Posts already started finish regardless.
func (p *Publisher[P]) Run(ctx context.Context) (*transfer.PassResult, error) {
	runID, err := gonanoid.Generate(runIDAlphabet, 12)
	if err != nil {
		return nil, err
	}

	result := &transfer.PassResult{
		Platform:  string(p.platform),
		RunID:     runID,
		StartedAt: p.clock.Now(),
		Published: []int64{},
		Failed:    []transfer.PostFailure{},
		Skipped:   []transfer.PostSkip{},
	}
	log := slog.With("platform", p.platform, "run_id", runID)

	posts, err := p.store.ClaimDue(ctx, p.clock.Now())
	if err != nil {
		result.Error = err.Error()
		result.FinishedAt = p.clock.Now()
		log.Error("claiming due posts failed", "error", err)
		sentry.CaptureException(fmt.Errorf("%s pass %s: claim due posts: %w", p.platform, runID, err))
		return result, err
	}
	result.Claimed = len(posts)
	if len(posts) == 0 {
		result.FinishedAt = p.clock.Now()
		log.Debug("no posts due")
		return result, nil
	}
	log.Info("claimed due posts", "count", len(posts))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(id int64, out Outcome) {
		mu.Lock()
		defer mu.Unlock()
		switch out.Kind {
		case OutcomePublished:
			result.Published = append(result.Published, id)
		case OutcomeSkipped:
			result.Skipped = append(result.Skipped, transfer.PostSkip{PostID: id, Reason: out.Reason})
		default:
			msg := "unknown error"
			if out.Err != nil {
				msg = out.Err.Error()
			}
			result.Failed = append(result.Failed, transfer.PostFailure{PostID: id, Error: msg})
		}
	}

	// Status writes must land even when the pass is cancelled.
	workCtx := context.WithoutCancel(ctx)

	for i, post := range posts {
		wg.Add(1)
		err := p.limiter.Go(ctx, func() {
			defer wg.Done()
			out := p.process(workCtx, log, post)
			record(post.Base().ID, out)
		})
		if err != nil {
			wg.Done()
			for _, rest := range posts[i:] {
				out := p.finish(workCtx, log, rest, Skipped(models.PostStatusScheduled, "pass cancelled before the post started"))
				record(rest.Base().ID, out)
			}
			break
		}
	}
	wg.Wait()

	result.FinishedAt = p.clock.Now()
	log.Info("pass finished",
		"claimed", result.Claimed,
		"published", len(result.Published),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	return result, nil
}

// process publishes the post and writes the outcome back. A panic anywhere in
// between fails the post and puts it back to scheduled.
func (p *Publisher[P]) process(ctx context.Context, log *slog.Logger, post P) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			id := post.Base().ID
			log.Error("panic processing post", "post_id", id, "panic", r)
			sentry.CurrentHub().Recover(r)
			out = Failed(fmt.Errorf("panic publishing post: %v", r))
			p.reschedule(ctx, log, id)
		}
	}()
	out = p.worker.Publish(ctx, post)
	return p.finish(ctx, log, post, out)
}

func (p *Publisher[P]) reschedule(ctx context.Context, log *slog.Logger, id int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("rescheduling post after panic failed", "post_id", id, "panic", r)
		}
	}()
	if err := p.store.UpdatePostStatus(ctx, models.PostStatusScheduled, id); err != nil {
		log.Error("rescheduling post after panic failed", "post_id", id, "error", err)
	}
}

// finish writes the outcome back. A published post whose write fails goes back
// to scheduled and counts as failed.
func (p *Publisher[P]) finish(ctx context.Context, log *slog.Logger, post P, out Outcome) Outcome {
	id := post.Base().ID
	log = log.With("post_id", id)

	if out.Kind == OutcomePublished {
		if err := p.store.MarkPublished(ctx, id, out.Ref, p.clock.Now()); err != nil {
			log.Error("marking post published failed", "error", err, "ref", out.Ref)
			sentry.CaptureException(fmt.Errorf("%s post %d: mark published: %w", p.platform, id, err))
			out = Failed(fmt.Errorf("published as %s but the result was not stored: %w", out.Ref, err))
		} else {
			log.Info("post published", "ref", out.Ref)
			return out
		}
	}

	if err := p.store.UpdatePostStatus(ctx, out.Next, id); err != nil {
		log.Error("writing post status failed", "error", err, "status", out.Next)
		sentry.CaptureException(fmt.Errorf("%s post %d: update status to %s: %w", p.platform, id, out.Next, err))
	}

	switch out.Kind {
	case OutcomeSkipped:
		log.Info("post skipped", "reason", out.Reason, "status", out.Next)
	case OutcomeFailed:
		log.Warn("post failed", "error", out.Err, "status", out.Next)
		sentry.CaptureException(fmt.Errorf("%s post %d: %w", p.platform, id, out.Err))
	}
	return out
}
