package repository

import (
	"Hydro/internal/model"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AggregateRepo interface {
	UpsertDaily(ctx context.Context, rows []*model.DailyWaterAggregate) error
	ListDaily(ctx context.Context, userID uint64, from, to string) ([]*model.DailyWaterAggregate, error)
	UpsertWeekly(ctx context.Context, summary *model.WeeklySummary) error
	ListWeekly(ctx context.Context, userID uint64, from, to string) ([]*model.WeeklySummary, error)
}

type aggregateRepoImpl struct {
	db *gorm.DB
}

func NewAggregateRepo(db *gorm.DB) AggregateRepo {
	return &aggregateRepoImpl{db: db}
}

// UpsertDaily 单事务写入，冲突时累加到已有汇总上
// 同一天可能在多次清理中分批删除，已删除的记录不会被再次选中
func (s *aggregateRepoImpl) UpsertDaily(ctx context.Context, rows []*model.DailyWaterAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, r := range rows {
		r.UpdatedAt = now
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dialect := tx.Dialector.Name()
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "entry_date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_ounces": accumulate(dialect, "total_ounces"),
				"entry_count":  accumulate(dialect, "entry_count"),
				"updated_at":   now,
			}),
		}).CreateInBatches(rows, 200).Error
	})
}

// accumulate 已有值加上本次插入值，MySQL 用 VALUES()，其余用 excluded
func accumulate(dialect, column string) clause.Expr {
	if dialect == DialectMySQL {
		return gorm.Expr(fmt.Sprintf("%s + VALUES(%s)", column, column))
	}
	table := model.DailyWaterAggregate{}.TableName()
	return gorm.Expr(fmt.Sprintf("%s.%s + excluded.%s", table, column, column))
}

func (s *aggregateRepoImpl) ListDaily(ctx context.Context, userID uint64, from, to string) ([]*model.DailyWaterAggregate, error) {
	rows := make([]*model.DailyWaterAggregate, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND entry_date >= ? AND entry_date <= ?", userID, from, to).
		Order("entry_date ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

func (s *aggregateRepoImpl) UpsertWeekly(ctx context.Context, summary *model.WeeklySummary) error {
	summary.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_start_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"days_with_data", "total_ounces", "average_ounces", "updated_at"}),
	}).Create(summary).Error
}

func (s *aggregateRepoImpl) ListWeekly(ctx context.Context, userID uint64, from, to string) ([]*model.WeeklySummary, error) {
	rows := make([]*model.WeeklySummary, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND week_start_date >= ? AND week_start_date <= ?", userID, from, to).
		Order("week_start_date ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}
