package service

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/logger"
	"Hydro/internal/pkg/metrics"
	"Hydro/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// JobHandler 处理一种任务类型，返回值序列化后写入 result
type JobHandler func(ctx context.Context, payload []byte) (any, error)

type JobService interface {
	Register(jobType string, handler JobHandler)
	Enqueue(ctx context.Context, jobType string, payload any) (*model.Job, error)
	EnqueueUnique(ctx context.Context, jobType string, payload any) (bool, error)
	EnqueueBatch(ctx context.Context, req *dto.EnqueueDTO) (*dto.EnqueueResultDTO, error)
	ProcessPending(ctx context.Context, batchSize int) (*dto.ProcessResultDTO, error)
	Cleanup(ctx context.Context) (*dto.SweepResultDTO, error)
	Stats(ctx context.Context, window time.Duration) (*dto.JobStatsDTO, error)
}

type jobServiceImpl struct {
	jobRepo     repository.JobRepo
	storageRepo repository.StorageRepo
	queueCfg    config.QueueConfig
	workerCfg   config.WorkerConfig
	mu          sync.RWMutex
	handlers    map[string]JobHandler
	now         func() time.Time
}

func NewJobService(jobRepo repository.JobRepo, storageRepo repository.StorageRepo, queueCfg config.QueueConfig, workerCfg config.WorkerConfig) JobService {
	if workerCfg.BatchSize <= 0 {
		workerCfg.BatchSize = 20
	}
	if workerCfg.Concurrency <= 0 {
		workerCfg.Concurrency = 4
	}
	return &jobServiceImpl{
		jobRepo:     jobRepo,
		storageRepo: storageRepo,
		queueCfg:    queueCfg,
		workerCfg:   workerCfg,
		handlers:    make(map[string]JobHandler),
		now:         time.Now,
	}
}

func (s *jobServiceImpl) Register(jobType string, handler JobHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = handler
}

func (s *jobServiceImpl) handler(jobType string) (JobHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[jobType]
	return h, ok
}

func (s *jobServiceImpl) Enqueue(ctx context.Context, jobType string, payload any) (*model.Job, error) {
	job, err := s.newJob(jobType, payload)
	if err != nil {
		return nil, err
	}
	if err = s.jobRepo.Create(ctx, job); err != nil {
		return nil, dbErr("enqueue job", err)
	}
	log.InfoContext(ctx, "job enqueued", "job_id", job.ID, "type", jobType)
	return job, nil
}

// EnqueueUnique 已有相同负载的任务在排队或执行时不再入队
func (s *jobServiceImpl) EnqueueUnique(ctx context.Context, jobType string, payload any) (bool, error) {
	job, err := s.newJob(jobType, payload)
	if err != nil {
		return false, err
	}
	exists, err := s.jobRepo.ExistsPending(ctx, jobType, job.Payload)
	if err != nil {
		return false, dbErr("check pending jobs", err)
	}
	if exists {
		return false, nil
	}
	if err = s.jobRepo.Create(ctx, job); err != nil {
		return false, dbErr("enqueue job", err)
	}
	return true, nil
}

// EnqueueBatch 压测用，一次写入 count 个相同任务
func (s *jobServiceImpl) EnqueueBatch(ctx context.Context, req *dto.EnqueueDTO) (*dto.EnqueueResultDTO, error) {
	count := req.Count
	if count <= 0 {
		count = 1
	}

	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	jobs := make([]*model.Job, 0, count)
	for i := 0; i < count; i++ {
		job, err := s.newJob(req.Type, payload)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := s.jobRepo.Create(ctx, jobs...); err != nil {
		return nil, dbErr("enqueue jobs", err)
	}

	ids := make([]uint64, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	log.InfoContext(ctx, "jobs enqueued", "type", req.Type, "count", len(jobs))
	return &dto.EnqueueResultDTO{Enqueued: len(jobs), IDs: ids}, nil
}

func (s *jobServiceImpl) newJob(jobType string, payload any) (*model.Job, error) {
	if _, ok := s.handler(jobType); !ok {
		return nil, ErrUnknownJobType
	}
	body := "{}"
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, ErrInvalidPayload
		}
		body = string(raw)
	}
	now := s.now().UTC()
	return &model.Job{
		Type:      jobType,
		Status:    model.JobPending,
		Payload:   body,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ProcessPending 按创建时间取一批待处理任务，逐个条件更新抢占后并发执行
func (s *jobServiceImpl) ProcessPending(ctx context.Context, batchSize int) (*dto.ProcessResultDTO, error) {
	if batchSize <= 0 {
		batchSize = s.workerCfg.BatchSize
	}

	jobs, err := s.jobRepo.ListPending(ctx, batchSize)
	if err != nil {
		return nil, dbErr("list pending jobs", err)
	}

	result := &dto.ProcessResultDTO{Jobs: make([]*dto.JobRunDTO, 0, len(jobs))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCfg.Concurrency)
	for _, job := range jobs {
		claimed, cerr := s.jobRepo.Claim(ctx, job.ID, s.now().UTC())
		if cerr != nil {
			log.ErrorContext(ctx, "claim job failed", "job_id", job.ID, "err", cerr)
			continue
		}
		if !claimed {
			continue
		}

		g.Go(func() error {
			run := s.execute(gctx, job)
			mu.Lock()
			defer mu.Unlock()
			result.Claimed++
			if run.Status == model.JobComplete {
				result.Completed++
			} else {
				result.Failed++
			}
			result.Jobs = append(result.Jobs, run)
			return nil
		})
	}
	_ = g.Wait()

	if result.Claimed > 0 {
		log.InfoContext(ctx, "job batch processed", "claimed", result.Claimed, "completed", result.Completed, "failed", result.Failed)
	}
	return result, nil
}

// execute 任务失败只记录到表中，不自动重试
func (s *jobServiceImpl) execute(ctx context.Context, job *model.Job) *dto.JobRunDTO {
	ctx = logger.WithTrace(ctx, "job-"+uuid.NewString())
	start := s.now()
	run := &dto.JobRunDTO{ID: job.ID, Type: job.Type}

	out, err := s.invoke(ctx, job)
	elapsed := s.now().Sub(start)
	run.DurationMs = elapsed.Milliseconds()

	metrics.JobDuration.WithLabelValues(job.Type).Observe(elapsed.Seconds())

	// 状态落库不受请求取消影响
	saveCtx := context.WithoutCancel(ctx)
	if err == nil {
		body := "null"
		if out != nil {
			if raw, merr := json.Marshal(out); merr == nil {
				body = string(raw)
			}
		}
		if serr := s.jobRepo.Complete(saveCtx, job.ID, body, run.DurationMs, s.now().UTC()); serr != nil {
			log.ErrorContext(ctx, "mark job complete failed", "job_id", job.ID, "err", serr)
		}
		run.Status = model.JobComplete
		metrics.JobsProcessed.WithLabelValues(job.Type, model.JobComplete).Inc()
		return run
	}

	log.WarnContext(ctx, "job failed", "job_id", job.ID, "type", job.Type, "err", err)
	if serr := s.jobRepo.Fail(saveCtx, job.ID, err.Error(), run.DurationMs, s.now().UTC()); serr != nil {
		log.ErrorContext(ctx, "mark job failed failed", "job_id", job.ID, "err", serr)
	}
	run.Status = model.JobError
	run.Error = err.Error()
	metrics.JobsProcessed.WithLabelValues(job.Type, model.JobError).Inc()
	return run
}

func (s *jobServiceImpl) invoke(ctx context.Context, job *model.Job) (out any, err error) {
	h, ok := s.handler(job.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return h(ctx, []byte(job.Payload))
}

// Cleanup 清理过期任务并重置卡住的任务
func (s *jobServiceImpl) Cleanup(ctx context.Context) (*dto.SweepResultDTO, error) {
	now := s.now().UTC()
	res := &dto.SweepResultDTO{}
	var err error

	if res.CompleteDeleted, err = s.jobRepo.DeleteFinishedBefore(ctx, model.JobComplete, now.Add(-minutes(s.queueCfg.CompleteTTL, 60))); err != nil {
		return nil, dbErr("delete completed jobs", err)
	}
	if res.ErrorDeleted, err = s.jobRepo.DeleteFinishedBefore(ctx, model.JobError, now.Add(-minutes(s.queueCfg.ErrorTTL, 180))); err != nil {
		return nil, dbErr("delete failed jobs", err)
	}
	if res.PendingDeleted, err = s.jobRepo.DeletePendingBefore(ctx, now.Add(-minutes(s.queueCfg.PendingTTL, 1440))); err != nil {
		return nil, dbErr("delete expired pending jobs", err)
	}
	if res.StuckReset, err = s.jobRepo.ResetStuck(ctx, now.Add(-minutes(s.queueCfg.StuckAfter, 15)), now); err != nil {
		return nil, dbErr("reset stuck jobs", err)
	}

	if res.CompleteDeleted+res.ErrorDeleted+res.PendingDeleted > 0 {
		if cerr := s.storageRepo.Compact(ctx, "jobs"); cerr != nil {
			log.WarnContext(ctx, "compaction failed", "table", "jobs", "err", cerr)
		} else {
			res.Compacted = true
		}
	}

	log.InfoContext(ctx, "job sweep finished",
		"complete_deleted", res.CompleteDeleted,
		"error_deleted", res.ErrorDeleted,
		"pending_deleted", res.PendingDeleted,
		"stuck_reset", res.StuckReset)
	return res, nil
}

func (s *jobServiceImpl) Stats(ctx context.Context, window time.Duration) (*dto.JobStatsDTO, error) {
	if window <= 0 {
		window = minutes(s.queueCfg.StatsWindow, 10)
	}
	now := s.now().UTC()

	counts, err := s.jobRepo.CountByStatus(ctx)
	if err != nil {
		return nil, dbErr("count jobs", err)
	}
	completed, avgMs, err := s.jobRepo.CompletedSince(ctx, now.Add(-window))
	if err != nil {
		return nil, dbErr("job throughput", err)
	}
	oldest, err := s.jobRepo.OldestPending(ctx)
	if err != nil {
		return nil, dbErr("oldest pending job", err)
	}

	stats := &dto.JobStatsDTO{
		Counts:            counts,
		WindowMinutes:     int(window.Minutes()),
		CompletedInWindow: completed,
		JobsPerMinute:     float64(completed) / window.Minutes(),
		AvgDurationMs:     avgMs,
	}
	for _, c := range counts {
		stats.Total += c
	}
	if oldest != nil {
		age := now.Sub(oldest.UTC()).Seconds()
		stats.OldestPendingAgeSec = &age
	}
	return stats, nil
}

func minutes(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Minute
}
