package service

import (
	"Hydro/internal/pkg/consts"
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

type RetentionPayload struct {
	UserID uint64 `json:"userId"`
}

type LoadTestPayload struct {
	SleepMs int  `json:"sleepMs"`
	Fail    bool `json:"fail"`
}

var errLoadTestFailure = errors.New("load-test job failed on request")

// RegisterJobHandlers 注册内置任务类型
func RegisterJobHandlers(jobs JobService, cleanup CleanupService) {
	jobs.Register(consts.JobTypeRetentionCleanup, func(ctx context.Context, payload []byte) (any, error) {
		var p RetentionPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.UserID == 0 {
			return nil, ErrInvalidPayload
		}
		// 当天已清理时直接跳过，重复执行安全
		res, err := cleanup.CleanupOldEntries(ctx, p.UserID, false)
		if err != nil {
			return nil, err
		}
		return res.View(), nil
	})

	jobs.Register(consts.JobTypeLoadTest, func(ctx context.Context, payload []byte) (any, error) {
		var p LoadTestPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, ErrInvalidPayload
			}
		}
		if p.SleepMs > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(min(p.SleepMs, 60_000)) * time.Millisecond):
			}
		}
		if p.Fail {
			return nil, errLoadTestFailure
		}
		return map[string]any{"sleptMs": p.SleepMs}, nil
	})
}
