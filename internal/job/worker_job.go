package job

import (
	"Hydro/internal/pkg/logger"
	"Hydro/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// WorkerJob 定时拉取并执行待处理任务
type WorkerJob struct {
	jobSvc    service.JobService
	batchSize int
	timeout   time.Duration
}

func NewWorkerJob(jobSvc service.JobService, batchSize int) *WorkerJob {
	return &WorkerJob{jobSvc: jobSvc, batchSize: batchSize, timeout: 5 * time.Minute}
}

func (s *WorkerJob) Run() {
	ctx := logger.WithTrace(context.Background(), "job-worker-"+uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.jobSvc.ProcessPending(ctx, s.batchSize)
	if err != nil {
		log.ErrorContext(ctx, "process pending jobs error", "err", err)
		return
	}
	if res.Claimed > 0 {
		log.InfoContext(ctx, "worker tick finished", "claimed", res.Claimed, "failed", res.Failed)
	}
}
