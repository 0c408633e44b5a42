package model

import "time"

// 容器分类
const (
	ClassReusableBottle   = "reusable-bottle"
	ClassDisposableBottle = "disposable-bottle"
	ClassDisposableCan    = "disposable-can"
	ClassCupGlass         = "cup/glass"
	ClassFountain         = "fountain"
	ClassTap              = "tap"
	ClassDispenser        = "dispenser"
	ClassManual           = "manual"
	ClassDescription      = "description"
)

// Classifications 合法分类集合
var Classifications = map[string]bool{
	ClassReusableBottle:   true,
	ClassDisposableBottle: true,
	ClassDisposableCan:    true,
	ClassCupGlass:         true,
	ClassFountain:         true,
	ClassTap:              true,
	ClassDispenser:        true,
	ClassManual:           true,
	ClassDescription:      true,
}

// WaterEntry 一次饮水记录，EntryDate 为用户时区下的日期
type WaterEntry struct {
	ID                  uint64    `gorm:"primaryKey" json:"id"`
	UserID              uint64    `gorm:"not null;index:idx_entry_user_date,priority:1" json:"userId"`
	Ounces              float64   `gorm:"type:decimal(10,2);not null" json:"ounces"`
	EntryDate           string    `gorm:"type:char(10);not null;index:idx_entry_user_date,priority:2" json:"entryDate"`
	Timestamp           time.Time `gorm:"not null" json:"timestamp"`
	Classification      string    `gorm:"type:varchar(32);not null" json:"classification"`
	LiquidType          string    `gorm:"type:varchar(64);not null;default:water" json:"liquidType"`
	ImageURL            *string   `gorm:"type:varchar(512)" json:"imageUrl,omitempty"`
	Description         *string   `gorm:"type:varchar(500)" json:"description,omitempty"`
	Servings            int       `gorm:"not null;default:1" json:"servings"`
	CreatedFromFavorite bool      `gorm:"not null;default:false" json:"createdFromFavorite"`
	IsDeleted           bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
}

func (WaterEntry) TableName() string {
	return "water_entries"
}
