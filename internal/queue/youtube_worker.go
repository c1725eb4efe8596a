package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/repository"
	"github.com/maheshrc27/autopost/internal/service"
	"github.com/maheshrc27/autopost/pkg/utils"
)

type YoutubeWorker struct {
	channels repository.ChannelRepository
	tokens   service.TokenService
	media    service.MediaService
	yt       service.YoutubeService
	cipher   *utils.TokenCipher
	clock    clock.Clock
}

func NewYoutubeWorker(
	channels repository.ChannelRepository,
	tokens service.TokenService,
	media service.MediaService,
	yt service.YoutubeService,
	cipher *utils.TokenCipher,
	clk clock.Clock) *YoutubeWorker {
	return &YoutubeWorker{
		channels: channels,
		tokens:   tokens,
		media:    media,
		yt:       yt,
		cipher:   cipher,
		clock:    clk,
	}
}

func (w *YoutubeWorker) Publish(ctx context.Context, post *models.YoutubePost) Outcome {
	videoURL := strings.TrimSpace(post.VideoURL)
	if videoURL == "" {
		return Skipped(models.PostStatusDraft, "no video attached")
	}

	// Already on YouTube, nothing to upload.
	if service.IsYoutubeURL(videoURL) {
		return Published(videoURL)
	}

	if post.Channel == nil {
		return Skipped(models.PostStatusScheduled, "no youtube channel connected")
	}

	ch, err := w.channels.GetByID(ctx, post.Channel.ID)
	if err != nil {
		return Failed(fmt.Errorf("error loading channel %d: %w", post.Channel.ID, err))
	}
	if ch == nil {
		return Skipped(models.PostStatusScheduled, "youtube channel not found")
	}

	accessToken, skip, err := w.accessToken(ctx, ch)
	if err != nil {
		return Failed(err)
	}
	if skip != "" {
		return Skipped(models.PostStatusScheduled, skip)
	}

	media, err := w.media.Fetch(ctx, videoURL)
	if err != nil {
		return Failed(fmt.Errorf("error fetching video: %w", err))
	}

	videoID, err := w.yt.UploadVideo(ctx, service.VideoMetadata{
		Title:       post.Title,
		Description: post.Description,
		Tags:        post.Tags,
		VideoType:   post.VideoType,
	}, media, accessToken)
	if err != nil {
		return Failed(err)
	}

	return Published(service.WatchURL(videoID))
}

// accessToken returns a usable plaintext token, refreshing an expired one. A
// non-empty skip reason means the post cannot go out until the channel is fixed.
func (w *YoutubeWorker) accessToken(ctx context.Context, ch *models.Channel) (token, skip string, err error) {
	if !ch.Expired(w.clock.Now()) {
		token, err = w.cipher.Decrypt(ch.AccessToken)
		if err != nil {
			return "", "", fmt.Errorf("error decrypting access token: %w", err)
		}
		return token, "", nil
	}

	if ch.RefreshToken == "" {
		return "", service.ErrNoRefreshToken.Error(), nil
	}

	token, err = w.tokens.RefreshYoutubeToken(ctx, ch)
	if err != nil {
		return "", fmt.Sprintf("token refresh failed: %v", err), nil
	}
	return token, "", nil
}
