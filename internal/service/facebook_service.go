package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/internal/transfer"
)

var (
	ErrNoMedia          = errors.New("post has no media")
	ErrUnsupportedAlbum = errors.New("albums mixing several media with video are not supported")
	ErrEmptyPostID      = errors.New("facebook returned no post id")
)

var videoExtPattern = regexp.MustCompile(`(?i)\.(mp4|mov|avi|wmv|flv|webm)$`)

type FacebookService interface {
	// PublishPost posts the media to the page and returns the id Facebook
	// assigned to the resulting post or video.
	PublishPost(ctx context.Context, pageID, accessToken, message string, mediaURLs []string) (string, error)
}

type facebookService struct {
	graphURL string
	client   *http.Client
}

func NewFacebookService(cfg config.Config, client *http.Client) FacebookService {
	if client == nil {
		client = http.DefaultClient
	}
	return &facebookService{
		graphURL: strings.TrimSuffix(cfg.FacebookGraphURL, "/"),
		client:   client,
	}
}

func (s *facebookService) PublishPost(ctx context.Context, pageID, accessToken, message string, mediaURLs []string) (string, error) {
	switch {
	case len(mediaURLs) == 0:
		return "", ErrNoMedia
	case len(mediaURLs) == 1:
		return s.singlePost(ctx, pageID, accessToken, message, mediaURLs[0])
	case HasVideo(mediaURLs):
		return "", ErrUnsupportedAlbum
	default:
		return s.albumPost(ctx, pageID, accessToken, message, mediaURLs)
	}
}

func (s *facebookService) singlePost(ctx context.Context, pageID, accessToken, message, mediaURL string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", accessToken)

	edge := "photos"
	if IsVideoURL(mediaURL) {
		edge = "videos"
		form.Set("file_url", mediaURL)
	} else {
		form.Set("url", mediaURL)
	}

	resp, err := s.post(ctx, pageID, edge, form)
	if err != nil {
		return "", fmt.Errorf("failed to publish single %s post on Facebook: %w", strings.TrimSuffix(edge, "s"), err)
	}
	return resultID(resp)
}

// albumPost uploads every photo unpublished and then publishes one feed post
// referencing all of them. Any failed upload aborts before the feed post.
func (s *facebookService) albumPost(ctx context.Context, pageID, accessToken, message string, mediaURLs []string) (string, error) {
	attached := make([]transfer.AttachedMedia, 0, len(mediaURLs))

	for i, mediaURL := range mediaURLs {
		form := url.Values{}
		form.Set("url", mediaURL)
		form.Set("published", "false")
		form.Set("access_token", accessToken)

		resp, err := s.post(ctx, pageID, "photos", form)
		if err != nil {
			return "", fmt.Errorf("failed to upload album photo %d of %d: %w", i+1, len(mediaURLs), err)
		}
		if resp.ID == "" {
			return "", fmt.Errorf("failed to upload album photo %d of %d: %w", i+1, len(mediaURLs), ErrEmptyPostID)
		}
		attached = append(attached, transfer.AttachedMedia{MediaFbid: resp.ID})
	}

	attachedJSON, err := json.Marshal(attached)
	if err != nil {
		return "", fmt.Errorf("error marshalling attached media: %w", err)
	}

	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", accessToken)
	form.Set("attached_media", string(attachedJSON))

	resp, err := s.post(ctx, pageID, "feed", form)
	if err != nil {
		return "", fmt.Errorf("failed to publish album post on Facebook: %w", err)
	}
	return resultID(resp)
}

func (s *facebookService) post(ctx context.Context, pageID, edge string, form url.Values) (*transfer.GraphResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", s.graphURL, url.PathEscape(pageID), edge)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var graphErr transfer.GraphErrorResponse
		if json.Unmarshal(respBody, &graphErr) == nil && graphErr.Error.Message != "" {
			return nil, fmt.Errorf("facebook error (status %d, code %d): %s", resp.StatusCode, graphErr.Error.Code, graphErr.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status code from Facebook: %d", resp.StatusCode)
	}

	var result transfer.GraphResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &result, nil
}

func resultID(resp *transfer.GraphResponse) (string, error) {
	if resp.PostID != "" {
		return resp.PostID, nil
	}
	if resp.ID != "" {
		return resp.ID, nil
	}
	return "", ErrEmptyPostID
}

// BuildFacebookMessage joins the description, or the title when the
// description is blank, with a trailing line of hashtags made from the tags.
func BuildFacebookMessage(title, description string, tags []string) string {
	body := strings.TrimSpace(description)
	if body == "" {
		body = strings.TrimSpace(title)
	}

	hashtags := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, tag)
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		hashtags = append(hashtags, "#"+tag)
	}

	if len(hashtags) == 0 {
		return body
	}
	if body == "" {
		return strings.Join(hashtags, " ")
	}
	return body + "\n\n" + strings.Join(hashtags, " ")
}

// IsVideoURL classifies a media URL by the extension of its path.
func IsVideoURL(mediaURL string) bool {
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		p = u.Path
	}
	return videoExtPattern.MatchString(path.Ext(p))
}

func HasVideo(mediaURLs []string) bool {
	for _, u := range mediaURLs {
		if IsVideoURL(u) {
			return true
		}
	}
	return false
}
