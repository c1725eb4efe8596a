package models

import "time"

// UserUsage is the slice of a user record the usage reset touches.
type UserUsage struct {
	ID            int64      `db:"id" json:"id"`
	Credit        int        `db:"credit" json:"credit"`
	CreditUsed    int        `db:"credit_used" json:"credit_used"`
	Capacity      int        `db:"capacity" json:"capacity"`
	CapacityUsed  int        `db:"capacity_used" json:"capacity_used"`
	LastResetDate *time.Time `db:"last_reset_date" json:"last_reset_date"`
	PricingPlanID *int64     `db:"pricing_plan_id" json:"pricing_plan_id"`
}

const UsageWindow = 30 * 24 * time.Hour
