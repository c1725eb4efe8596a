package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadVideo(t *testing.T) {
	var (
		gotAuth  string
		gotQuery string
		gotBody  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"vid-1"}`))
	}))
	defer srv.Close()

	svc := NewYoutubeService(config.Config{YoutubeEndpoint: srv.URL + "/"}, srv.Client())
	id, err := svc.UploadVideo(context.Background(), VideoMetadata{
		Title:     "Launch",
		Tags:      []string{"go"},
		VideoType: models.VideoTypeShorts,
	}, &Media{Body: []byte("video-bytes"), ContentType: "video/mp4"}, "access-1")

	require.NoError(t, err)
	assert.Equal(t, "vid-1", id)
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Contains(t, gotQuery, "uploadType=multipart")
	assert.Contains(t, gotBody, "video-bytes")
	assert.Contains(t, gotBody, `"categoryId":"22"`)
	assert.Contains(t, gotBody, "#Shorts")
	assert.Contains(t, gotBody, `"madeForKids":false`)
}

func TestUploadVideoWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	svc := NewYoutubeService(config.Config{YoutubeEndpoint: srv.URL + "/"}, srv.Client())
	_, err := svc.UploadVideo(context.Background(), VideoMetadata{Title: "x"}, &Media{Body: []byte("v"), ContentType: "video/mp4"}, "tok")
	assert.ErrorIs(t, err, ErrEmptyVideoID)
}

func TestUploadVideoProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
	}))
	defer srv.Close()

	svc := NewYoutubeService(config.Config{YoutubeEndpoint: srv.URL + "/"}, srv.Client())
	_, err := svc.UploadVideo(context.Background(), VideoMetadata{Title: "x"}, &Media{Body: []byte("v"), ContentType: "video/mp4"}, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quotaExceeded")
}

func TestApplyShortsTaggingIsIdempotent(t *testing.T) {
	tags, desc := ApplyShortsTagging([]string{"go"}, "Watch this")
	assert.Equal(t, []string{"go", "Shorts"}, tags)
	assert.Equal(t, "Watch this\n\n#Shorts", desc)

	again, againDesc := ApplyShortsTagging(tags, desc)
	assert.Equal(t, tags, again)
	assert.Equal(t, desc, againDesc)
}

func TestApplyShortsTaggingBlankDescription(t *testing.T) {
	tags, desc := ApplyShortsTagging(nil, "  ")
	assert.Equal(t, []string{"Shorts"}, tags)
	assert.Equal(t, "#Shorts", desc)
}

func TestApplyShortsTaggingRespectsExistingMarkers(t *testing.T) {
	input := []string{"shorts"}
	tags, desc := ApplyShortsTagging(input, "already #shorts here")
	assert.Equal(t, []string{"shorts"}, tags)
	assert.Equal(t, "already #shorts here", desc)
}

func TestApplyShortsTaggingIgnoresLongerHashtags(t *testing.T) {
	_, desc := ApplyShortsTagging(nil, "Weekly #ShortsRecap")
	assert.Equal(t, "Weekly #ShortsRecap\n\n#Shorts", desc)

	_, again := ApplyShortsTagging(nil, desc)
	assert.Equal(t, desc, again)

	_, punctuated := ApplyShortsTagging(nil, "New clip #shorts!")
	assert.Equal(t, "New clip #shorts!", punctuated)
}

func TestBuildVideo(t *testing.T) {
	v := BuildVideo(VideoMetadata{Title: "t", Description: "d", Tags: []string{"a"}, VideoType: models.VideoTypeVideo})
	assert.Equal(t, "t", v.Snippet.Title)
	assert.Equal(t, "d", v.Snippet.Description)
	assert.Equal(t, []string{"a"}, v.Snippet.Tags)
	assert.Equal(t, "22", v.Snippet.CategoryId)
	assert.Equal(t, "public", v.Status.PrivacyStatus)
	assert.False(t, v.Status.MadeForKids)
	assert.False(t, v.Status.SelfDeclaredMadeForKids)

	shorts := BuildVideo(VideoMetadata{Title: "t", VideoType: models.VideoTypeShorts})
	assert.Contains(t, shorts.Snippet.Tags, "Shorts")
	assert.True(t, strings.HasSuffix(shorts.Snippet.Description, "#Shorts"))
}

func TestIsYoutubeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://youtube.com/shorts/abcdefg", true},
		{"https://m.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", true},
		{"https://cdn.example.com/video.mp4", false},
		{"https://media.example.com/youtube.com/watch?v=abcdefg", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsYoutubeURL(tt.url), tt.url)
	}
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", WatchURL("abc"))
}
