package model

import "time"

type User struct {
	ID        uint64 `gorm:"primaryKey"`
	Username  string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Password  string `gorm:"type:varchar(255);not null"`
	Role      string `gorm:"type:varchar(16);not null;default:USER"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
