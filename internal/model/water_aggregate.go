package model

import "time"

// DailyWaterAggregate 清理前按天汇总的饮水量，原始记录删除后作为唯一历史来源
type DailyWaterAggregate struct {
	ID          uint64    `gorm:"primaryKey" json:"-"`
	UserID      uint64    `gorm:"not null;uniqueIndex:idx_agg_user_date,priority:1" json:"userId"`
	EntryDate   string    `gorm:"type:char(10);not null;uniqueIndex:idx_agg_user_date,priority:2" json:"entryDate"`
	TotalOunces float64   `gorm:"type:decimal(12,2);not null;default:0" json:"totalOunces"`
	EntryCount  int       `gorm:"not null;default:0" json:"entryCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (DailyWaterAggregate) TableName() string {
	return "daily_water_aggregates"
}

// WeeklySummary 按 ISO 周（周一开始）统计
type WeeklySummary struct {
	ID            uint64    `gorm:"primaryKey" json:"-"`
	UserID        uint64    `gorm:"not null;uniqueIndex:idx_week_user_start,priority:1" json:"userId"`
	WeekStartDate string    `gorm:"type:char(10);not null;uniqueIndex:idx_week_user_start,priority:2" json:"weekStartDate"`
	DaysWithData  int       `gorm:"not null;default:0" json:"daysWithData"`
	TotalOunces   float64   `gorm:"type:decimal(12,2);not null;default:0" json:"totalOunces"`
	AverageOunces float64   `gorm:"type:decimal(10,2);not null;default:0" json:"averageOunces"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (WeeklySummary) TableName() string {
	return "weekly_summaries"
}
