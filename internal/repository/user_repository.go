package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

type UserRepository interface {
	ResetUsage(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// ResetUsage zeroes the consumption counters of every user on a plan whose
// last reset is missing or at or before cutoff, and stamps now as the new reset date.
func (r *userRepository) ResetUsage(ctx context.Context, cutoff, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET credit_used = 0,
			capacity_used = 0,
			last_reset_date = $1,
			updated_at = $1
		WHERE pricing_plan_id IS NOT NULL
			AND (last_reset_date IS NULL OR last_reset_date <= $2)
	`
	result, err := r.db.ExecContext(ctx, query, now, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}
