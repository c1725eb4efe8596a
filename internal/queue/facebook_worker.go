package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/repository"
	"github.com/maheshrc27/autopost/internal/service"
	"github.com/maheshrc27/autopost/pkg/utils"
)

type FacebookWorker struct {
	channels repository.ChannelRepository
	fb       service.FacebookService
	cipher   *utils.TokenCipher
	clock    clock.Clock
}

func NewFacebookWorker(
	channels repository.ChannelRepository,
	fb service.FacebookService,
	cipher *utils.TokenCipher,
	clk clock.Clock) *FacebookWorker {
	return &FacebookWorker{channels: channels, fb: fb, cipher: cipher, clock: clk}
}

func (w *FacebookWorker) Publish(ctx context.Context, post *models.FacebookPost) Outcome {
	if len(post.UploadedURLs) == 0 {
		return Skipped(models.PostStatusDraft, "no media attached")
	}
	if post.Channel == nil {
		return Skipped(models.PostStatusScheduled, "no facebook page connected")
	}

	ch, err := w.channels.GetByID(ctx, post.Channel.ID)
	if err != nil {
		return Failed(fmt.Errorf("error loading channel %d: %w", post.Channel.ID, err))
	}
	if ch == nil {
		return Skipped(models.PostStatusScheduled, "facebook page not found")
	}

	// Page tokens cannot be refreshed here; the user has to reconnect.
	if ch.Expired(w.clock.Now()) {
		return Skipped(models.PostStatusScheduled, "facebook page token expired")
	}
	if len(post.UploadedURLs) > 1 && service.HasVideo(post.UploadedURLs) {
		return Skipped(models.PostStatusScheduled, service.ErrUnsupportedAlbum.Error())
	}

	accessToken, err := w.cipher.Decrypt(ch.AccessToken)
	if err != nil {
		return Failed(fmt.Errorf("error decrypting page token: %w", err))
	}

	message := service.BuildFacebookMessage(post.Title, post.Description, post.Tags)
	postID, err := w.fb.PublishPost(ctx, ch.ChannelID, accessToken, message, post.UploadedURLs)
	switch {
	case errors.Is(err, service.ErrUnsupportedAlbum):
		return Skipped(models.PostStatusScheduled, err.Error())
	case err != nil:
		return Failed(err)
	}

	return Published(postID)
}
