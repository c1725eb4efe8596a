package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/autopost/internal/models"
)

type YoutubePostRepository interface {
	ClaimDue(ctx context.Context, now time.Time) ([]*models.YoutubePost, error)
	MarkPublished(ctx context.Context, postID int64, youtubeURL string, publishedAt time.Time) error
	UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error
}

type FacebookPostRepository interface {
	ClaimDue(ctx context.Context, now time.Time) ([]*models.FacebookPost, error)
	MarkPublished(ctx context.Context, postID int64, facebookPostID string, publishedAt time.Time) error
	UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error
}

// latestChannelJoin attaches the owner's most recently created channel for
// the platform ($2) to every row of p.
const latestChannelJoin = `
	LEFT JOIN LATERAL (
		SELECT id, user_id, platform, channel_id, access_token, refresh_token, expires_at, created_at
		FROM channels ch
		WHERE ch.user_id = p.user_id AND ch.platform = $2
		ORDER BY ch.created_at DESC, ch.id DESC
		LIMIT 1
	) c ON TRUE`

const channelColumns = `c.id, c.user_id, c.platform, c.channel_id, c.access_token, c.refresh_token, c.expires_at, c.created_at`

type youtubePostRepository struct {
	db *sql.DB
}

func NewYoutubePostRepository(db *sql.DB) YoutubePostRepository {
	return &youtubePostRepository{db: db}
}

func (r *youtubePostRepository) ClaimDue(ctx context.Context, now time.Time) ([]*models.YoutubePost, error) {
	query := `
		SELECT p.id, p.user_id, p.title, p.description, p.tags, p.video_type, p.process_status,
			p.scheduled_at, p.published_at, p.video_url, p.youtube_url, ` + channelColumns + `
		FROM youtube_posts p` + latestChannelJoin + `
		WHERE p.process_status = $1 AND p.scheduled_at <= $3
		ORDER BY p.scheduled_at, p.id`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, models.PlatformYoutube, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.YoutubePost
	for rows.Next() {
		var (
			post       models.YoutubePost
			row        postRow
			videoURL   sql.NullString
			youtubeURL sql.NullString
			ch         nullableChannel
		)
		dest := append(row.dest(&post.Post), &videoURL, &youtubeURL)
		dest = append(dest, ch.dest()...)
		if err := rows.Scan(dest...); err != nil {
			slog.Info("skipping unreadable youtube post", "error", err)
			continue
		}
		if err := row.apply(&post.Post); err != nil {
			slog.Info("skipping invalid youtube post", "post_id", post.ID, "error", err)
			continue
		}
		post.VideoURL = videoURL.String
		post.YoutubeURL = nullStringPtr(youtubeURL)
		post.Channel = ch.channel()
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}

	claimed, err := markProcessing(ctx, r.db, "youtube_posts", postIDs(posts))
	if err != nil {
		return nil, err
	}

	result := posts[:0]
	for _, p := range posts {
		if _, ok := claimed[p.ID]; ok {
			p.ProcessStatus = models.PostStatusProcessing
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *youtubePostRepository) MarkPublished(ctx context.Context, postID int64, youtubeURL string, publishedAt time.Time) error {
	query := `
		UPDATE youtube_posts
		SET process_status = $1,
			youtube_url = $2,
			published_at = $3,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, youtubeURL, publishedAt, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *youtubePostRepository) UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error {
	return updatePostStatus(ctx, r.db, "youtube_posts", status, postID)
}

type facebookPostRepository struct {
	db *sql.DB
}

func NewFacebookPostRepository(db *sql.DB) FacebookPostRepository {
	return &facebookPostRepository{db: db}
}

func (r *facebookPostRepository) ClaimDue(ctx context.Context, now time.Time) ([]*models.FacebookPost, error) {
	query := `
		SELECT p.id, p.user_id, p.title, p.description, p.tags, p.video_type, p.process_status,
			p.scheduled_at, p.published_at, p.uploaded_urls, p.facebook_post_id, ` + channelColumns + `
		FROM facebook_posts p` + latestChannelJoin + `
		WHERE p.process_status = $1 AND p.scheduled_at <= $3
		ORDER BY p.scheduled_at, p.id`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, models.PlatformFacebook, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.FacebookPost
	for rows.Next() {
		var (
			post   models.FacebookPost
			row    postRow
			postID sql.NullString
			ch     nullableChannel
		)
		dest := append(row.dest(&post.Post), pq.Array(&post.UploadedURLs), &postID)
		dest = append(dest, ch.dest()...)
		if err := rows.Scan(dest...); err != nil {
			slog.Info("skipping unreadable facebook post", "error", err)
			continue
		}
		if err := row.apply(&post.Post); err != nil {
			slog.Info("skipping invalid facebook post", "post_id", post.ID, "error", err)
			continue
		}
		post.FacebookPostID = nullStringPtr(postID)
		post.Channel = ch.channel()
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}

	claimed, err := markProcessing(ctx, r.db, "facebook_posts", postIDs(posts))
	if err != nil {
		return nil, err
	}

	result := posts[:0]
	for _, p := range posts {
		if _, ok := claimed[p.ID]; ok {
			p.ProcessStatus = models.PostStatusProcessing
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *facebookPostRepository) MarkPublished(ctx context.Context, postID int64, facebookPostID string, publishedAt time.Time) error {
	query := `
		UPDATE facebook_posts
		SET process_status = $1,
			facebook_post_id = $2,
			published_at = $3,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, facebookPostID, publishedAt, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *facebookPostRepository) UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error {
	return updatePostStatus(ctx, r.db, "facebook_posts", status, postID)
}

// markProcessing moves the given posts from scheduled to processing in one
// statement and returns the ids it actually moved. A post another pass already
// claimed no longer matches and is left out.
func markProcessing(ctx context.Context, db *sql.DB, table string, ids []int64) (map[int64]struct{}, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET process_status = $1,
			updated_at = NOW()
		WHERE id = ANY($2) AND process_status = $3
		RETURNING id
	`, table)

	rows, err := db.QueryContext(ctx, query, models.PostStatusProcessing, pq.Array(ids), models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	claimed := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		claimed[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return claimed, nil
}

func updatePostStatus(ctx context.Context, db *sql.DB, table string, status models.PostStatus, postID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET process_status = $1,
			updated_at = $2
		WHERE id = $3
	`, table)
	_, err := db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// postRow holds the shared columns that may be NULL or need validating. A row
// that fails either is skipped and left scheduled so it cannot stall the pass.
type postRow struct {
	title         sql.NullString
	description   sql.NullString
	videoType     sql.NullString
	processStatus string
}

func (r *postRow) dest(p *models.Post) []any {
	return []any{
		&p.ID, &p.UserID, &r.title, &r.description, pq.Array(&p.Tags),
		&r.videoType, &r.processStatus, &p.ScheduledAt, &p.PublishedAt,
	}
}

func (r *postRow) apply(p *models.Post) error {
	status, err := models.ParsePostStatus(r.processStatus)
	if err != nil {
		return fmt.Errorf("post %d: %w", p.ID, err)
	}
	videoType, err := models.ParseVideoType(r.videoType.String)
	if err != nil {
		return fmt.Errorf("post %d: %w", p.ID, err)
	}
	p.Title = r.title.String
	p.Description = r.description.String
	p.ProcessStatus = status
	p.VideoType = videoType
	return nil
}

func postIDs[P models.ScheduledPost](posts []P) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.Base().ID)
	}
	return ids
}

type nullableChannel struct {
	id           sql.NullInt64
	userID       sql.NullInt64
	platform     sql.NullString
	channelID    sql.NullString
	accessToken  sql.NullString
	refreshToken sql.NullString
	expiresAt    sql.NullTime
	createdAt    sql.NullTime
}

func (n *nullableChannel) dest() []any {
	return []any{&n.id, &n.userID, &n.platform, &n.channelID, &n.accessToken, &n.refreshToken, &n.expiresAt, &n.createdAt}
}

func (n *nullableChannel) channel() *models.Channel {
	if !n.id.Valid {
		return nil
	}
	ch := &models.Channel{
		ID:           n.id.Int64,
		UserID:       n.userID.Int64,
		Platform:     models.Platform(n.platform.String),
		ChannelID:    n.channelID.String,
		AccessToken:  n.accessToken.String,
		RefreshToken: n.refreshToken.String,
		CreatedAt:    n.createdAt.Time,
	}
	if n.expiresAt.Valid {
		t := n.expiresAt.Time
		ch.ExpiresAt = &t
	}
	return ch
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
