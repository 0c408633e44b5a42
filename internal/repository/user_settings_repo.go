package repository

import (
	"Hydro/internal/model"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 配额类型对应的计数列与窗口列
var limitColumns = map[string][2]string{
	model.LimitImageUpload:  {"image_upload_count", "image_upload_window"},
	model.LimitBarcodeScan:  {"barcode_scan_count", "barcode_scan_window"},
	model.LimitTextAnalysis: {"text_analysis_count", "text_analysis_window"},
}

type UserSettingsRepo interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.UserSettings, error)
	Create(ctx context.Context, settings *model.UserSettings) error
	UpdatePreferences(ctx context.Context, userID uint64, updates map[string]any) error
	IncrementLimit(ctx context.Context, userID uint64, limitType, today string) error
	SetLastCleanupDate(ctx context.Context, userID uint64, date string) error
	ListAfter(ctx context.Context, afterUserID uint64, limit int) ([]*model.UserSettings, error)
}

type userSettingsRepoImpl struct {
	db *gorm.DB
}

func NewUserSettingsRepo(db *gorm.DB) UserSettingsRepo {
	return &userSettingsRepoImpl{db: db}
}

func (s *userSettingsRepoImpl) GetByUserID(ctx context.Context, userID uint64) (*model.UserSettings, error) {
	settings := &model.UserSettings{}
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).First(settings)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return settings, nil
}

func (s *userSettingsRepoImpl) Create(ctx context.Context, settings *model.UserSettings) error {
	return s.db.WithContext(ctx).Create(settings).Error
}

func (s *userSettingsRepoImpl) UpdatePreferences(ctx context.Context, userID uint64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// IncrementLimit 单条 UPDATE 完成计数加一或跨天重置
// 计数列排在窗口列之前，MySQL 按顺序求值时 CASE 读到的仍是旧窗口
func (s *userSettingsRepoImpl) IncrementLimit(ctx context.Context, userID uint64, limitType, today string) error {
	cols, ok := limitColumns[limitType]
	if !ok {
		return fmt.Errorf("unknown limit type %q", limitType)
	}
	countCol, windowCol := cols[0], cols[1]

	result := s.db.WithContext(ctx).
		Model(&model.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			countCol:  gorm.Expr("CASE WHEN "+windowCol+" = ? THEN "+countCol+" + 1 ELSE 1 END", today),
			windowCol: today,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *userSettingsRepoImpl) SetLastCleanupDate(ctx context.Context, userID uint64, date string) error {
	return s.db.WithContext(ctx).
		Model(&model.UserSettings{}).
		Where("user_id = ?", userID).
		Update("last_cleanup_date", date).Error
}

// ListAfter 按 user_id 游标分页
func (s *userSettingsRepoImpl) ListAfter(ctx context.Context, afterUserID uint64, limit int) ([]*model.UserSettings, error) {
	list := make([]*model.UserSettings, 0, limit)
	result := s.db.WithContext(ctx).
		Where("user_id > ?", afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Find(&list)
	if result.Error != nil {
		return nil, result.Error
	}
	return list, nil
}
