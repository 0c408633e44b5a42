package job

import (
	"Hydro/internal/pkg/logger"
	"Hydro/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

type JobCleanupJob struct {
	jobSvc service.JobService
}

func NewJobCleanupJob(jobSvc service.JobService) *JobCleanupJob {
	return &JobCleanupJob{jobSvc: jobSvc}
}

func (s *JobCleanupJob) Run() {
	ctx := logger.WithTrace(context.Background(), "job-sweep-"+uuid.NewString())
	if _, err := s.jobSvc.Cleanup(ctx); err != nil {
		log.ErrorContext(ctx, "job table sweep error", "err", err)
	}
}
