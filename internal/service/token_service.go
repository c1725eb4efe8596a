package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/benbjohnson/clock"
	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/repository"
	"github.com/maheshrc27/autopost/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

var ErrNoRefreshToken = errors.New("token expired and no refresh token is stored")

type TokenService interface {
	// RefreshYoutubeToken exchanges the channel's refresh token for a new
	// access token, stores it and returns it in plaintext.
	RefreshYoutubeToken(ctx context.Context, ch *models.Channel) (string, error)
}

type tokenService struct {
	oauth  *oauth2.Config
	sa     repository.ChannelRepository
	cipher *utils.TokenCipher
	client *http.Client
	clock  clock.Clock
	group  singleflight.Group
}

func NewTokenService(
	cfg config.Config,
	sa repository.ChannelRepository,
	cipher *utils.TokenCipher,
	client *http.Client,
	clk clock.Clock) TokenService {
	endpoint := google.Endpoint
	if cfg.GoogleTokenURL != "" {
		endpoint.TokenURL = cfg.GoogleTokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &tokenService{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
			Endpoint:     endpoint,
		},
		sa:     sa,
		cipher: cipher,
		client: client,
		clock:  clk,
	}
}

// Concurrent refreshes of one channel share a single token exchange.
func (s *tokenService) RefreshYoutubeToken(ctx context.Context, ch *models.Channel) (string, error) {
	if ch.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	v, err, _ := s.group.Do(strconv.FormatInt(ch.ID, 10), func() (interface{}, error) {
		return s.refresh(ctx, ch)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *tokenService) refresh(ctx context.Context, ch *models.Channel) (string, error) {
	refreshToken, err := s.cipher.Decrypt(ch.RefreshToken)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}
	token, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("refresh token for channel %d: %w", ch.ID, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("refresh token for channel %d: empty access token", ch.ID)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = GetExpiresAt(s.clock.Now(), 0)
	}

	encryptedAccessToken, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", err
	}

	if err := s.sa.SetToken(ctx, ch.ID, encryptedAccessToken, expiresAt); err != nil {
		return "", fmt.Errorf("store refreshed token for channel %d: %w", ch.ID, err)
	}

	ch.AccessToken = encryptedAccessToken
	ch.ExpiresAt = &expiresAt
	return token.AccessToken, nil
}
