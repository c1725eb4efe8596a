package transfer

import "time"

type PostFailure struct {
	PostID int64  `json:"post_id"`
	Error  string `json:"error"`
}

type PostSkip struct {
	PostID int64  `json:"post_id"`
	Reason string `json:"reason"`
}

// PassResult aggregates the outcome of one publishing pass for one platform.
type PassResult struct {
	Platform   string        `json:"platform"`
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Claimed    int           `json:"claimed"`
	Published  []int64       `json:"published"`
	Failed     []PostFailure `json:"failed"`
	Skipped    []PostSkip    `json:"skipped"`
	UsageReset int64         `json:"usage_reset"`
	Error      string        `json:"error,omitempty"`
}

type SchedulerStatus struct {
	Running    bool                   `json:"running"`
	Interval   string                 `json:"interval"`
	LastPasses map[string]*PassResult `json:"last_passes"`
}
