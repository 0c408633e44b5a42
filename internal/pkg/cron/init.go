package cron

import log "log/slog"

// InitCron 没有启用任何任务时不启动调度器
func InitCron(mgr *Manager) error {
	n, err := mgr.RegisterJobs()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("no cron jobs enabled, scheduler not started")
		return nil
	}
	log.Info("cron jobs registered", "count", n)
	mgr.Start()
	return nil
}
