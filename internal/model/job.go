package model

import "time"

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobComplete   = "complete"
	JobError      = "error"
)

// Job 任务队列记录
type Job struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	Type        string     `gorm:"type:varchar(64);not null;index" json:"type"`
	Status      string     `gorm:"type:varchar(16);not null;index:idx_job_status_created,priority:1" json:"status"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	Payload     string     `gorm:"type:text" json:"payload"`
	Result      *string    `gorm:"type:text" json:"result,omitempty"`
	Error       *string    `gorm:"type:text" json:"error,omitempty"`
	DurationMs  *int64     `json:"durationMs,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_job_status_created,priority:2" json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Job) TableName() string {
	return "jobs"
}
