package repository

import (
	"Hydro/internal/model"
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

type JobRepo interface {
	Create(ctx context.Context, jobs ...*model.Job) error
	GetByID(ctx context.Context, id uint64) (*model.Job, error)
	ListPending(ctx context.Context, limit int) ([]*model.Job, error)
	Claim(ctx context.Context, id uint64, now time.Time) (bool, error)
	Complete(ctx context.Context, id uint64, result string, durationMs int64, now time.Time) error
	Fail(ctx context.Context, id uint64, message string, durationMs int64, now time.Time) error
	ExistsPending(ctx context.Context, jobType, payload string) (bool, error)
	DeleteFinishedBefore(ctx context.Context, status string, before time.Time) (int64, error)
	DeletePendingBefore(ctx context.Context, before time.Time) (int64, error)
	ResetStuck(ctx context.Context, startedBefore, now time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CompletedSince(ctx context.Context, since time.Time) (int64, float64, error)
	OldestPending(ctx context.Context) (*time.Time, error)
}

type jobRepoImpl struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepo {
	return &jobRepoImpl{db: db}
}

func (s *jobRepoImpl) Create(ctx context.Context, jobs ...*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(jobs, 200).Error
}

func (s *jobRepoImpl) GetByID(ctx context.Context, id uint64) (*model.Job, error) {
	var jobs []*model.Job
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&jobs).Error; err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

func (s *jobRepoImpl) ListPending(ctx context.Context, limit int) ([]*model.Job, error) {
	jobs := make([]*model.Job, 0, limit)
	result := s.db.WithContext(ctx).
		Where("status = ?", model.JobPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

// Claim 条件更新抢占任务，影响行数为 1 才算抢到
func (s *jobRepoImpl) Claim(ctx context.Context, id uint64, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobPending).
		Updates(map[string]any{
			"status":     model.JobProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *jobRepoImpl) Complete(ctx context.Context, id uint64, result string, durationMs int64, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobProcessing).
		Updates(map[string]any{
			"status":       model.JobComplete,
			"result":       result,
			"error":        nil,
			"duration_ms":  durationMs,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

func (s *jobRepoImpl) Fail(ctx context.Context, id uint64, message string, durationMs int64, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobProcessing).
		Updates(map[string]any{
			"status":       model.JobError,
			"error":        message,
			"attempts":     gorm.Expr("attempts + 1"),
			"duration_ms":  durationMs,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

// ExistsPending 同类型同负载的任务是否已在排队
func (s *jobRepoImpl) ExistsPending(ctx context.Context, jobType, payload string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("type = ? AND payload = ? AND status IN ?", jobType, payload, []string{model.JobPending, model.JobProcessing}).
		Count(&count).Error
	return count > 0, err
}

func (s *jobRepoImpl) DeleteFinishedBefore(ctx context.Context, status string, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", status, before).
		Delete(&model.Job{})
	return result.RowsAffected, result.Error
}

func (s *jobRepoImpl) DeletePendingBefore(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.JobPending, before).
		Delete(&model.Job{})
	return result.RowsAffected, result.Error
}

// ResetStuck 长时间处于 processing 的任务退回 pending
func (s *jobRepoImpl) ResetStuck(ctx context.Context, startedBefore, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("status = ? AND started_at < ?", model.JobProcessing, startedBefore).
		Updates(map[string]any{
			"status":     model.JobPending,
			"started_at": nil,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (s *jobRepoImpl) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{
		model.JobPending:    0,
		model.JobProcessing: 0,
		model.JobComplete:   0,
		model.JobError:      0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// CompletedSince 窗口内完成的任务数与平均耗时
func (s *jobRepoImpl) CompletedSince(ctx context.Context, since time.Time) (int64, float64, error) {
	var row struct {
		Total int64
		AvgMs sql.NullFloat64
	}
	err := s.db.WithContext(ctx).
		Model(&model.Job{}).
		Select("COUNT(*) AS total, AVG(duration_ms) AS avg_ms").
		Where("status = ? AND completed_at >= ?", model.JobComplete, since).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Total, row.AvgMs.Float64, nil
}

func (s *jobRepoImpl) OldestPending(ctx context.Context) (*time.Time, error) {
	var jobs []*model.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", model.JobPending).
		Order("created_at ASC").
		Limit(1).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	t := jobs[0].CreatedAt
	return &t, nil
}
