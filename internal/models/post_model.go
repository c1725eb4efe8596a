package models

import (
	"fmt"
	"time"
)

type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusProcessing PostStatus = "processing"
	PostStatusPublished  PostStatus = "published"
)

func ParsePostStatus(s string) (PostStatus, error) {
	switch st := PostStatus(s); st {
	case PostStatusDraft, PostStatusScheduled, PostStatusProcessing, PostStatusPublished:
		return st, nil
	}
	return "", fmt.Errorf("unknown process status %q", s)
}

type VideoType string

const (
	VideoTypeVideo  VideoType = "video"
	VideoTypeShorts VideoType = "shorts"
)

func ParseVideoType(s string) (VideoType, error) {
	switch vt := VideoType(s); vt {
	case VideoTypeVideo, VideoTypeShorts:
		return vt, nil
	case "":
		return VideoTypeVideo, nil
	}
	return "", fmt.Errorf("unknown video type %q", s)
}

// Post holds the fields both platform variants share. Channel is the owner's
// most recently created channel for the post's platform, nil when none is connected.
type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Tags          []string   `db:"tags" json:"tags"`
	VideoType     VideoType  `db:"video_type" json:"video_type"`
	ProcessStatus PostStatus `db:"process_status" json:"process_status"`
	ScheduledAt   *time.Time `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at"`
	Channel       *Channel   `json:"-"`
}

type YoutubePost struct {
	Post
	VideoURL   string  `db:"video_url" json:"video_url"`
	YoutubeURL *string `db:"youtube_url" json:"youtube_url"`
}

type FacebookPost struct {
	Post
	UploadedURLs   []string `db:"uploaded_urls" json:"uploaded_urls"`
	FacebookPostID *string  `db:"facebook_post_id" json:"facebook_post_id"`
}

// ScheduledPost is implemented by every platform variant the publisher drives.
type ScheduledPost interface {
	Base() *Post
}

func (p *Post) Base() *Post { return p }
