package job

import (
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/logger"
	"Hydro/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

const retentionPageSize = 200

// RetentionJob 为当天尚未清理的用户排入清理任务，实际清理由 worker 完成
type RetentionJob struct {
	cleanupSvc service.CleanupService
	jobSvc     service.JobService
}

func NewRetentionJob(cleanupSvc service.CleanupService, jobSvc service.JobService) *RetentionJob {
	return &RetentionJob{cleanupSvc: cleanupSvc, jobSvc: jobSvc}
}

func (s *RetentionJob) Run() {
	ctx := logger.WithTrace(context.Background(), "job-retention-"+uuid.NewString())
	queued, err := s.sweep(ctx)
	if err != nil {
		log.ErrorContext(ctx, "retention sweep error", "queued", queued, "err", err)
		return
	}
	log.InfoContext(ctx, "retention sweep finished", "queued", queued)
}

func (s *RetentionJob) sweep(ctx context.Context) (int, error) {
	queued := 0
	var cursor uint64
	for {
		due, next, err := s.cleanupSvc.ListDueUsers(ctx, cursor, retentionPageSize)
		if err != nil {
			return queued, err
		}
		for _, uid := range due {
			ok, err := s.jobSvc.EnqueueUnique(ctx, consts.JobTypeRetentionCleanup, service.RetentionPayload{UserID: uid})
			if err != nil {
				log.WarnContext(ctx, "enqueue retention cleanup failed", "uid", uid, "err", err)
				continue
			}
			if ok {
				queued++
			}
		}
		if next == 0 {
			return queued, nil
		}
		cursor = next
	}
}
