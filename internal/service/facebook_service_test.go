package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	config "github.com/maheshrc27/autopost/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphCall struct {
	Path string
	Form map[string]string
}

type fakeGraph struct {
	mu     sync.Mutex
	calls  []graphCall
	photos int
	// failPhoto makes the n-th photo upload (1-based) fail.
	failPhoto int
}

func (g *fakeGraph) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		g.calls = append(g.calls, graphCall{Path: r.URL.Path, Form: form})

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/page-1/photos":
			g.photos++
			if g.photos == g.failPhoto {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"message":"Invalid image","type":"OAuthException","code":324}}`))
				return
			}
			_, _ = fmt.Fprintf(w, `{"id":"photo-%d","post_id":"page-1_%d"}`, g.photos, g.photos)
		case "/page-1/videos":
			_, _ = w.Write([]byte(`{"id":"video-1"}`))
		case "/page-1/feed":
			_, _ = w.Write([]byte(`{"id":"page-1_feed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newFakeGraph(t *testing.T) (*fakeGraph, FacebookService) {
	t.Helper()
	g := &fakeGraph{}
	srv := httptest.NewServer(g.handler(t))
	t.Cleanup(srv.Close)
	return g, NewFacebookService(config.Config{FacebookGraphURL: srv.URL + "/"}, srv.Client())
}

func TestPublishSinglePhoto(t *testing.T) {
	g, svc := newFakeGraph(t)

	id, err := svc.PublishPost(context.Background(), "page-1", "page-token", "hello", []string{"https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "page-1_1", id)

	require.Len(t, g.calls, 1)
	assert.Equal(t, "/page-1/photos", g.calls[0].Path)
	assert.Equal(t, "https://cdn.example.com/a.jpg", g.calls[0].Form["url"])
	assert.Equal(t, "hello", g.calls[0].Form["message"])
	assert.Equal(t, "page-token", g.calls[0].Form["access_token"])
}

func TestPublishSingleVideo(t *testing.T) {
	g, svc := newFakeGraph(t)

	id, err := svc.PublishPost(context.Background(), "page-1", "page-token", "clip", []string{"https://cdn.example.com/clip.MP4?sig=1"})
	require.NoError(t, err)
	assert.Equal(t, "video-1", id)

	require.Len(t, g.calls, 1)
	assert.Equal(t, "/page-1/videos", g.calls[0].Path)
	assert.Equal(t, "https://cdn.example.com/clip.MP4?sig=1", g.calls[0].Form["file_url"])
	assert.Equal(t, "clip", g.calls[0].Form["message"])
}

func TestPublishAlbum(t *testing.T) {
	g, svc := newFakeGraph(t)

	urls := []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.png", "https://cdn.example.com/c.webp"}
	id, err := svc.PublishPost(context.Background(), "page-1", "page-token", "album", urls)
	require.NoError(t, err)
	assert.Equal(t, "page-1_feed", id)

	require.Len(t, g.calls, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "/page-1/photos", g.calls[i].Path)
		assert.Equal(t, "false", g.calls[i].Form["published"])
		assert.Equal(t, urls[i], g.calls[i].Form["url"])
	}

	feed := g.calls[3]
	assert.Equal(t, "/page-1/feed", feed.Path)
	assert.Equal(t, "album", feed.Form["message"])

	var attached []map[string]string
	require.NoError(t, json.Unmarshal([]byte(feed.Form["attached_media"]), &attached))
	assert.Equal(t, []map[string]string{
		{"media_fbid": "photo-1"},
		{"media_fbid": "photo-2"},
		{"media_fbid": "photo-3"},
	}, attached)
}

func TestPublishAlbumAbortsOnFailedUpload(t *testing.T) {
	g, svc := newFakeGraph(t)
	g.failPhoto = 2

	urls := []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg", "https://cdn.example.com/c.jpg"}
	_, err := svc.PublishPost(context.Background(), "page-1", "page-token", "album", urls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image")

	for _, c := range g.calls {
		assert.NotEqual(t, "/page-1/feed", c.Path)
	}
	assert.Len(t, g.calls, 2)
}

func TestPublishRejectsVideoAlbum(t *testing.T) {
	g, svc := newFakeGraph(t)

	_, err := svc.PublishPost(context.Background(), "page-1", "tok", "", []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.mov"})
	assert.ErrorIs(t, err, ErrUnsupportedAlbum)
	assert.Empty(t, g.calls)
}

func TestPublishWithoutMedia(t *testing.T) {
	g, svc := newFakeGraph(t)

	_, err := svc.PublishPost(context.Background(), "page-1", "tok", "", nil)
	assert.ErrorIs(t, err, ErrNoMedia)
	assert.Empty(t, g.calls)
}

func TestBuildFacebookMessage(t *testing.T) {
	tests := []struct {
		name        string
		title, desc string
		tags        []string
		want        string
	}{
		{"description wins", "Title", "Body", nil, "Body"},
		{"title fallback", "Title", "  ", nil, "Title"},
		{"hashtags appended", "", "Body", []string{"go", "#dev", "new release", ""}, "Body\n\n#go #dev #newrelease"},
		{"only hashtags", "", "", []string{"go"}, "#go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFacebookMessage(tt.title, tt.desc, tt.tags))
		})
	}
}

func TestIsVideoURL(t *testing.T) {
	assert.True(t, IsVideoURL("https://cdn.example.com/a.mp4"))
	assert.True(t, IsVideoURL("https://cdn.example.com/a.WEBM?x=1"))
	assert.False(t, IsVideoURL("https://cdn.example.com/a.jpg"))
	assert.False(t, IsVideoURL("https://cdn.example.com/mp4"))
	assert.True(t, HasVideo([]string{"a.jpg", "b.mov"}))
	assert.False(t, HasVideo([]string{"a.jpg", "b.png"}))
}
