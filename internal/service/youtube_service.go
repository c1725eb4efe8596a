package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"

	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	youtubeCategoryPeopleBlogs = "22"
	shortsTag                  = "Shorts"
	shortsMarker               = "#Shorts"
)

var ErrEmptyVideoID = errors.New("youtube returned no video id")

var shortsMarkerPattern = regexp.MustCompile(`(?i)(^|\s)#shorts\b`)

var youtubeURLPattern = regexp.MustCompile(`^(?i)(https?://)?(www\.|m\.)?(youtube\.com/(watch\?(.*&)?v=|shorts/)|youtu\.be/)[\w-]{6,}`)

type VideoMetadata struct {
	Title       string
	Description string
	Tags        []string
	VideoType   models.VideoType
}

type YoutubeService interface {
	// UploadVideo inserts the video in a single multipart request and returns
	// the id YouTube assigned to it.
	UploadVideo(ctx context.Context, meta VideoMetadata, media *Media, accessToken string) (string, error)
}

type youtubeService struct {
	endpoint string
	client   *http.Client
}

func NewYoutubeService(cfg config.Config, client *http.Client) YoutubeService {
	return &youtubeService{
		endpoint: cfg.YoutubeEndpoint,
		client:   client,
	}
}

func (s *youtubeService) UploadVideo(ctx context.Context, meta VideoMetadata, media *Media, accessToken string) (string, error) {
	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error creating youtube service: %w", err)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, BuildVideo(meta))
	call.Media(bytes.NewReader(media.Body), googleapi.ContentType(media.ContentType))

	resp, err := call.Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error uploading video: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return "", ErrEmptyVideoID
	}
	return resp.Id, nil
}

// BuildVideo forces the upload public, not made for kids, in People & Blogs,
// and applies the Shorts tagging for shorts.
func BuildVideo(meta VideoMetadata) *youtube.Video {
	tags, description := meta.Tags, meta.Description
	if meta.VideoType == models.VideoTypeShorts {
		tags, description = ApplyShortsTagging(tags, description)
	}

	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: description,
			Tags:        tags,
			CategoryId:  youtubeCategoryPeopleBlogs,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			MadeForKids:             false,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"MadeForKids", "SelfDeclaredMadeForKids"},
		},
	}
}

// ApplyShortsTagging adds the Shorts tag and the #Shorts description marker
// unless they are already there. Applying it twice changes nothing.
func ApplyShortsTagging(tags []string, description string) ([]string, string) {
	out := slices.Clone(tags)
	if !slices.ContainsFunc(out, func(t string) bool { return strings.EqualFold(t, shortsTag) }) {
		out = append(out, shortsTag)
	}

	if !shortsMarkerPattern.MatchString(description) {
		if strings.TrimSpace(description) == "" {
			description = shortsMarker
		} else {
			description = description + "\n\n" + shortsMarker
		}
	}
	return out, description
}

// IsYoutubeURL reports whether the media reference already points at a video
// hosted on YouTube.
func IsYoutubeURL(rawURL string) bool {
	return youtubeURLPattern.MatchString(strings.TrimSpace(rawURL))
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
