package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/autopost/internal/models"
)

type ChannelRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	ListExpiring(ctx context.Context, platform models.Platform, before time.Time) ([]*models.Channel, error)
	SetToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error
}

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

const channelSelect = `SELECT id, user_id, platform, channel_id, access_token, COALESCE(refresh_token, ''), expires_at, created_at, updated_at FROM channels`

func scanChannel(scan func(dest ...any) error) (*models.Channel, error) {
	var ch models.Channel
	err := scan(&ch.ID, &ch.UserID, (*string)(&ch.Platform), &ch.ChannelID, &ch.AccessToken,
		&ch.RefreshToken, &ch.ExpiresAt, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *channelRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	row := r.db.QueryRowContext(ctx, channelSelect+` WHERE id = $1`, id)

	ch, err := scanChannel(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return ch, nil
}

// ListExpiring returns refreshable channels of the platform whose token
// expires before the given time, already expired ones included.
func (r *channelRepository) ListExpiring(ctx context.Context, platform models.Platform, before time.Time) ([]*models.Channel, error) {
	query := channelSelect + `
		WHERE platform = $1
			AND expires_at IS NOT NULL
			AND expires_at < $2
			AND COALESCE(refresh_token, '') <> ''
		ORDER BY expires_at`

	rows, err := r.db.QueryContext(ctx, query, platform, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		ch, err := scanChannel(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return channels, nil
}

func (r *channelRepository) SetToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	query := `
		UPDATE channels
		SET access_token = $1,
			expires_at = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, accessToken, expiresAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; channel may not exist")
		return errors.New("no rows affected; channel may not exist")
	}
	return nil
}
