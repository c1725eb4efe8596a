package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/autopost/internal/models"
)

// memoryStore keeps youtube posts in memory. ClaimDue moves posts under one
// lock, the way the conditional UPDATE does in Postgres.
type memoryStore struct {
	mu         sync.Mutex
	posts      map[int64]*models.YoutubePost
	refs       map[int64]string
	markErr    error
	markPanic  bool
	claimErr   error
	claimCalls int
}

func newMemoryStore(posts ...*models.YoutubePost) *memoryStore {
	s := &memoryStore{posts: map[int64]*models.YoutubePost{}, refs: map[int64]string{}}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *memoryStore) ClaimDue(ctx context.Context, now time.Time) ([]*models.YoutubePost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimCalls++
	if s.claimErr != nil {
		return nil, s.claimErr
	}

	var due []*models.YoutubePost
	for _, p := range s.posts {
		if p.ProcessStatus == models.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			p.ProcessStatus = models.PostStatusProcessing
			cp := *p
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (s *memoryStore) MarkPublished(ctx context.Context, postID int64, ref string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markPanic {
		panic("mark published exploded")
	}
	if s.markErr != nil {
		return s.markErr
	}
	p := s.posts[postID]
	p.ProcessStatus = models.PostStatusPublished
	p.PublishedAt = &publishedAt
	s.refs[postID] = ref
	return nil
}

func (s *memoryStore) UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[postID].ProcessStatus = status
	return nil
}

func (s *memoryStore) status(id int64) models.PostStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts[id].ProcessStatus
}

func (s *memoryStore) statuses() map[models.PostStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[models.PostStatus]int{}
	for _, p := range s.posts {
		out[p.ProcessStatus]++
	}
	return out
}

// funcWorker runs fn for every post and tracks how many run at once.
type funcWorker struct {
	fn func(ctx context.Context, post *models.YoutubePost) Outcome

	mu       sync.Mutex
	calls    []int64
	inFlight int
	maxSeen  int
}

func (w *funcWorker) Publish(ctx context.Context, post *models.YoutubePost) Outcome {
	w.mu.Lock()
	w.calls = append(w.calls, post.ID)
	w.inFlight++
	if w.inFlight > w.maxSeen {
		w.maxSeen = w.inFlight
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inFlight--
		w.mu.Unlock()
	}()
	return w.fn(ctx, post)
}

func (w *funcWorker) snapshot() (calls []int64, inFlight, maxSeen int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int64(nil), w.calls...), w.inFlight, w.maxSeen
}

var errUpload = errors.New("upload failed")

func duePost(id int64, at time.Time) *models.YoutubePost {
	return &models.YoutubePost{
		Post: models.Post{
			ID:            id,
			UserID:        1,
			Title:         "post",
			ProcessStatus: models.PostStatusScheduled,
			ScheduledAt:   &at,
		},
		VideoURL: "https://cdn.example.com/clip.mp4",
	}
}
