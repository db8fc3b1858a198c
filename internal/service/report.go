package service

import "time"

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Report summarizes one run. It is logged at the end of the run and kept in
// Redis as run history when Redis is configured.
type Report struct {
	RunID       string    `json:"run_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Status      string    `json:"status"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`

	ProvidersSkipped int `json:"providers_skipped"`
	ChannelsInserted int `json:"channels_inserted"`
	NumbersUpdated   int `json:"numbers_updated"`

	DatesDeleted      []string `json:"dates_deleted,omitempty"`
	DatesNeeded       []string `json:"dates_needed,omitempty"`
	BroadcastsDeleted int64    `json:"broadcasts_deleted"`

	PairsTotal         int `json:"pairs_total"`
	PairsSkipped       int `json:"pairs_skipped"`
	BroadcastsInserted int `json:"broadcasts_inserted"`

	EpisodesTotal     int `json:"episodes_total"`
	EpisodesSkipped   int `json:"episodes_skipped"`
	SummariesInserted int `json:"summaries_inserted"`

	ChannelsDeleted int64 `json:"channels_deleted"`
}

func (r *Report) fail(stage string, err error, at time.Time) {
	r.Status = StatusFailed
	r.FailedStage = stage
	r.Error = err.Error()
	r.FinishedAt = at
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
