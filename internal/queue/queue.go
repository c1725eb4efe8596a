package queue

import (
	"context"
	"time"

	"github.com/maheshrc27/autopost/internal/models"
)

type OutcomeKind string

const (
	OutcomePublished OutcomeKind = "published"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is what a worker decided for one claimed post. Next is the status
// the post is written back with.
type Outcome struct {
	Kind   OutcomeKind
	Next   models.PostStatus
	Ref    string
	Reason string
	Err    error
}

func Published(ref string) Outcome {
	return Outcome{Kind: OutcomePublished, Next: models.PostStatusPublished, Ref: ref}
}

func Skipped(next models.PostStatus, reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Next: next, Reason: reason}
}

// Failed sends the post back to scheduled so a later pass retries it.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Next: models.PostStatusScheduled, Err: err}
}

// PostStore is the slice of a post repository a Publisher needs.
type PostStore[P models.ScheduledPost] interface {
	ClaimDue(ctx context.Context, now time.Time) ([]P, error)
	MarkPublished(ctx context.Context, postID int64, ref string, publishedAt time.Time) error
	UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error
}

// Worker publishes one claimed post to its platform. It never writes the
// post's status itself.
type Worker[P models.ScheduledPost] interface {
	Publish(ctx context.Context, post P) Outcome
}
