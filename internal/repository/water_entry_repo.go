package repository

import (
	"Hydro/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

const deleteChunk = 500

// DayTotal 按日期汇总的饮水量
type DayTotal struct {
	EntryDate   string
	TotalOunces float64
	EntryCount  int
}

type WaterEntryRepo interface {
	Create(ctx context.Context, entry *model.WaterEntry) error
	GetByID(ctx context.Context, userID, id uint64) (*model.WaterEntry, error)
	SoftDelete(ctx context.Context, userID, id uint64) (int64, error)
	ListByDate(ctx context.Context, userID uint64, date string) ([]*model.WaterEntry, error)
	DailyTotals(ctx context.Context, userID uint64, from, to string) ([]*DayTotal, error)
	MaxEntryDate(ctx context.Context, userID uint64) (string, error)
	ListBefore(ctx context.Context, userID uint64, cutoff string) ([]*model.WaterEntry, error)
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, error)
	DeleteSoftDeletedBefore(ctx context.Context, userID uint64, cutoff string) (int64, error)
}

type waterEntryRepoImpl struct {
	db *gorm.DB
}

func NewWaterEntryRepo(db *gorm.DB) WaterEntryRepo {
	return &waterEntryRepoImpl{db: db}
}

func (s *waterEntryRepoImpl) Create(ctx context.Context, entry *model.WaterEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *waterEntryRepoImpl) GetByID(ctx context.Context, userID, id uint64) (*model.WaterEntry, error) {
	entry := &model.WaterEntry{}
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return entry, nil
}

func (s *waterEntryRepoImpl) SoftDelete(ctx context.Context, userID, id uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.WaterEntry{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Update("is_deleted", true)
	return result.RowsAffected, result.Error
}

func (s *waterEntryRepoImpl) ListByDate(ctx context.Context, userID uint64, date string) ([]*model.WaterEntry, error) {
	entries := make([]*model.WaterEntry, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND entry_date = ? AND is_deleted = ?", userID, date, false).
		Order("timestamp ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// DailyTotals [from, to] 区间内未删除记录的每日合计
func (s *waterEntryRepoImpl) DailyTotals(ctx context.Context, userID uint64, from, to string) ([]*DayTotal, error) {
	totals := make([]*DayTotal, 0)
	result := s.db.WithContext(ctx).
		Model(&model.WaterEntry{}).
		Select("entry_date, SUM(ounces) AS total_ounces, COUNT(*) AS entry_count").
		Where("user_id = ? AND is_deleted = ? AND entry_date >= ? AND entry_date <= ?", userID, false, from, to).
		Group("entry_date").
		Order("entry_date ASC").
		Scan(&totals)
	if result.Error != nil {
		return nil, result.Error
	}
	return totals, nil
}

// MaxEntryDate 最近一条未删除记录的日期，无记录返回空串
func (s *waterEntryRepoImpl) MaxEntryDate(ctx context.Context, userID uint64) (string, error) {
	var dates []string
	result := s.db.WithContext(ctx).
		Model(&model.WaterEntry{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("entry_date DESC").
		Limit(1).
		Pluck("entry_date", &dates)
	if result.Error != nil {
		return "", result.Error
	}
	if len(dates) == 0 {
		return "", nil
	}
	return dates[0], nil
}

func (s *waterEntryRepoImpl) ListBefore(ctx context.Context, userID uint64, cutoff string) ([]*model.WaterEntry, error) {
	entries := make([]*model.WaterEntry, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ? AND entry_date < ?", userID, false, cutoff).
		Order("entry_date ASC, id ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// DeleteByIDs 物理删除，按块提交避免超长 IN 列表
func (s *waterEntryRepoImpl) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	var total int64
	for start := 0; start < len(ids); start += deleteChunk {
		end := min(start+deleteChunk, len(ids))
		result := s.db.WithContext(ctx).Where("id IN ?", ids[start:end]).Delete(&model.WaterEntry{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}
	return total, nil
}

// DeleteSoftDeletedBefore 清理截止日期前已软删除的记录，这些记录不参与汇总
func (s *waterEntryRepoImpl) DeleteSoftDeletedBefore(ctx context.Context, userID uint64, cutoff string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ? AND entry_date < ?", userID, true, cutoff).
		Delete(&model.WaterEntry{})
	return result.RowsAffected, result.Error
}
