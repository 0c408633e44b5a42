package dto

import "github.com/goccy/go-json"

type ProcessJobsDTO struct {
	BatchSize int `json:"batchSize" validate:"omitempty,min=1,max=500"`
}

type JobRunDTO struct {
	ID         uint64 `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

type ProcessResultDTO struct {
	Claimed   int          `json:"claimed"`
	Completed int          `json:"completed"`
	Failed    int          `json:"failed"`
	Jobs      []*JobRunDTO `json:"jobs"`
}

type SweepResultDTO struct {
	CompleteDeleted int64 `json:"completeDeleted"`
	ErrorDeleted    int64 `json:"errorDeleted"`
	PendingDeleted  int64 `json:"pendingDeleted"`
	StuckReset      int64 `json:"stuckReset"`
	Compacted       bool  `json:"compacted"`
}

type EnqueueDTO struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload"`
	Count   int             `json:"count" validate:"omitempty,min=1,max=1000"`
}

type EnqueueResultDTO struct {
	Enqueued int      `json:"enqueued"`
	IDs      []uint64 `json:"ids"`
}

type JobStatsDTO struct {
	Counts              map[string]int64 `json:"counts"`
	Total               int64            `json:"total"`
	WindowMinutes       int              `json:"windowMinutes"`
	CompletedInWindow   int64            `json:"completedInWindow"`
	JobsPerMinute       float64          `json:"jobsPerMinute"`
	AvgDurationMs       float64          `json:"avgDurationMs"`
	OldestPendingAgeSec *float64         `json:"oldestPendingAgeSec"`
}
