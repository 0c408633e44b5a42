package model

import "time"

type Favorite struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	UserID         uint64    `gorm:"not null;index" json:"userId"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	Ounces         float64   `gorm:"type:decimal(10,2);not null" json:"ounces"`
	Classification string    `gorm:"type:varchar(32);not null" json:"classification"`
	LiquidType     string    `gorm:"type:varchar(64);not null;default:water" json:"liquidType"`
	Servings       int       `gorm:"not null;default:1" json:"servings"`
	ImageURL       *string   `gorm:"type:varchar(512)" json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (Favorite) TableName() string {
	return "favorites"
}
