package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/repository"
	"context"

	"github.com/jinzhu/copier"
)

type SettingsService interface {
	GetSettings(ctx context.Context, userID uint64) (*dto.SettingsDTO, error)
	UpdateSettings(ctx context.Context, userID uint64, req *dto.UpdateSettingsDTO) (*dto.SettingsDTO, error)
}

type settingsServiceImpl struct {
	settingsRepo repository.UserSettingsRepo
	cache        Cache
}

func NewSettingsService(settingsRepo repository.UserSettingsRepo, cache Cache) SettingsService {
	return &settingsServiceImpl{settingsRepo: settingsRepo, cache: cache}
}

func (s *settingsServiceImpl) GetSettings(ctx context.Context, userID uint64) (*dto.SettingsDTO, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("load user settings", err)
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}
	out := &dto.SettingsDTO{}
	if err = copier.Copy(out, settings); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSettings 配额计数与清理日期不允许从这里修改
func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, userID uint64, req *dto.UpdateSettingsDTO) (*dto.SettingsDTO, error) {
	updates := make(map[string]any)
	if req.DailyGoal != nil {
		updates["daily_goal"] = *req.DailyGoal
	}
	if req.WeeklyGoal != nil {
		updates["weekly_goal"] = *req.WeeklyGoal
	}
	if req.HandSize != nil {
		updates["hand_size"] = *req.HandSize
	}
	if req.SipSize != nil {
		updates["sip_size"] = *req.SipSize
	}
	if req.WaterUnit != nil {
		updates["water_unit"] = *req.WaterUnit
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}

	if err := s.settingsRepo.UpdatePreferences(ctx, userID, updates); err != nil {
		return nil, dbErr("update user settings", err)
	}
	// 目标或时区变化会影响历史结果
	if len(updates) > 0 {
		invalidateHistory(ctx, s.cache, userID)
	}
	return s.GetSettings(ctx, userID)
}
