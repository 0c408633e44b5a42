package cron

import (
	"Hydro/internal/api/config"
	"Hydro/internal/job"
	"fmt"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine        *cron.Cron
	cfg           *config.Config
	workerJob     *job.WorkerJob
	jobCleanupJob *job.JobCleanupJob
	retentionJob  *job.RetentionJob
}

func NewCronManager(cfg *config.Config, workerJob *job.WorkerJob, jobCleanupJob *job.JobCleanupJob, retentionJob *job.RetentionJob) *Manager {
	return &Manager{
		// 上一轮未结束时跳过本轮，panic 不影响调度
		engine: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		cfg:           cfg,
		workerJob:     workerJob,
		jobCleanupJob: jobCleanupJob,
		retentionJob:  retentionJob,
	}
}

// RegisterJobs 注册定时任务，spec 为空或 "-" 的任务不启用，返回启用数量
func (s *Manager) RegisterJobs() (int, error) {
	specs := []struct {
		spec string
		job  cron.Job
		name string
	}{
		{s.cfg.Worker.PollSpec, s.workerJob, "worker"},
		{s.cfg.Queue.CleanupSpec, s.jobCleanupJob, "job-cleanup"},
		{s.cfg.Retention.CronSpec, s.retentionJob, "retention"},
	}
	registered := 0
	for _, j := range specs {
		if j.spec == "" || j.spec == "-" {
			log.Info("cron job disabled", "job", j.name)
			continue
		}
		if _, err := s.engine.AddJob(j.spec, j.job); err != nil {
			return registered, fmt.Errorf("register %s job with spec %q: %w", j.name, j.spec, err)
		}
		registered++
	}
	return registered, nil
}

func (s *Manager) Start() {
	log.Info("Cron engine started")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron engine stopping")
	<-s.engine.Stop().Done()
}
