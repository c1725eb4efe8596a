package service

import (
	"context"
	"time"

	"github.com/maheshrc27/autopost/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	args := m.Called(ctx, id)
	if ch, ok := args.Get(0).(*models.Channel); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChannelRepository) ListExpiring(ctx context.Context, platform models.Platform, before time.Time) ([]*models.Channel, error) {
	args := m.Called(ctx, platform, before)
	if chs, ok := args.Get(0).([]*models.Channel); ok {
		return chs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChannelRepository) SetToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	args := m.Called(ctx, id, accessToken, expiresAt)
	return args.Error(0)
}
