package model

import "time"

// BarcodeCache 条码对应的单瓶容量，跨用户复用，无过期
type BarcodeCache struct {
	ID          uint64    `gorm:"primaryKey" json:"-"`
	Barcode     string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"barcode"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"productName"`
	Ounces      float64   `gorm:"type:decimal(10,2);not null" json:"ounces"`
	LiquidType  string    `gorm:"type:varchar(64);not null;default:water" json:"liquidType"`
	Source      string    `gorm:"type:varchar(32);not null" json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (BarcodeCache) TableName() string {
	return "barcode_cache"
}
