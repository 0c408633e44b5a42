package service

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/metrics"
	"Hydro/internal/pkg/util"
	"Hydro/internal/repository"
	"context"
	log "log/slog"
	"time"
)

type RateLimitService interface {
	CheckDailyLimit(ctx context.Context, userID uint64, limitType string) (*dto.LimitStatus, error)
	IncrementDailyLimit(ctx context.Context, userID uint64, limitType string) error
	Enforce(ctx context.Context, userID uint64, limitType string) error
}

type rateLimitServiceImpl struct {
	settingsRepo repository.UserSettingsRepo
	limits       map[string]int
	now          func() time.Time
}

func NewRateLimitService(settingsRepo repository.UserSettingsRepo, cfg config.LimitsConfig) RateLimitService {
	return &rateLimitServiceImpl{
		settingsRepo: settingsRepo,
		limits: map[string]int{
			model.LimitImageUpload:  cfg.ImageUpload,
			model.LimitBarcodeScan:  cfg.BarcodeScan,
			model.LimitTextAnalysis: cfg.TextAnalysis,
		},
		now: time.Now,
	}
}

// CheckDailyLimit 当天以用户时区计算，计数所属日期不是今天即视为 0
func (s *rateLimitServiceImpl) CheckDailyLimit(ctx context.Context, userID uint64, limitType string) (*dto.LimitStatus, error) {
	limit, ok := s.limits[limitType]
	if !ok {
		return nil, ErrParamInvalid
	}

	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("load user settings", err)
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}

	now := s.now()
	loc := util.LoadLocation(settings.Timezone)
	today := util.LocalDate(now, loc)

	current, window := settings.LimitUsage(limitType)
	if window != today {
		current = 0
	}

	return &dto.LimitStatus{
		LimitType: limitType,
		Allowed:   current < limit,
		Current:   current,
		Limit:     limit,
		ResetTime: util.NextMidnight(now, loc).Format(time.RFC3339),
	}, nil
}

// IncrementDailyLimit 只在受限操作成功后调用
func (s *rateLimitServiceImpl) IncrementDailyLimit(ctx context.Context, userID uint64, limitType string) error {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return dbErr("load user settings", err)
	}
	if settings == nil {
		return ErrSettingsNotFound
	}

	today := util.LocalDate(s.now(), util.LoadLocation(settings.Timezone))
	if err = s.settingsRepo.IncrementLimit(ctx, userID, limitType, today); err != nil {
		return dbErr("increment daily limit", err)
	}
	return nil
}

// Enforce 超限时返回 *LimitError
func (s *rateLimitServiceImpl) Enforce(ctx context.Context, userID uint64, limitType string) error {
	status, err := s.CheckDailyLimit(ctx, userID, limitType)
	if err != nil {
		return err
	}
	if status.Allowed {
		return nil
	}

	metrics.RateLimitRejections.WithLabelValues(limitType).Inc()
	log.InfoContext(ctx, "daily limit reached", "limit_type", limitType, "current", status.Current, "limit", status.Limit)

	reset, _ := time.Parse(time.RFC3339, status.ResetTime)
	return &LimitError{
		LimitType: limitType,
		Current:   status.Current,
		Limit:     status.Limit,
		ResetTime: reset,
	}
}
