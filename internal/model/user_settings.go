package model

import "time"

const (
	HandSmall  = "small"
	HandMedium = "medium"
	HandLarge  = "large"
)

// 每日配额类型
const (
	LimitImageUpload  = "image_upload"
	LimitBarcodeScan  = "barcode_scan"
	LimitTextAnalysis = "text_analysis"
)

// UserSettings 用户偏好与配额计数。计数与 LastCleanupDate 只由限流和清理逻辑写入
type UserSettings struct {
	ID                 uint64    `gorm:"primaryKey" json:"-"`
	UserID             uint64    `gorm:"not null;uniqueIndex" json:"userId"`
	DailyGoal          float64   `gorm:"type:decimal(10,2);not null;default:64" json:"dailyGoal"`
	WeeklyGoal         float64   `gorm:"type:decimal(10,2);not null;default:448" json:"weeklyGoal"`
	HandSize           string    `gorm:"type:varchar(16);not null;default:medium" json:"handSize"`
	SipSize            float64   `gorm:"type:decimal(6,2);not null;default:1" json:"sipSize"`
	WaterUnit          string    `gorm:"type:varchar(8);not null;default:oz" json:"waterUnit"`
	Timezone           string    `gorm:"type:varchar(64);not null;default:UTC" json:"timezone"`
	LastCleanupDate    string    `gorm:"type:varchar(10)" json:"lastCleanupDate"`
	ImageUploadCount   int       `gorm:"not null;default:0" json:"-"`
	ImageUploadWindow  string    `gorm:"type:varchar(10)" json:"-"`
	BarcodeScanCount   int       `gorm:"not null;default:0" json:"-"`
	BarcodeScanWindow  string    `gorm:"type:varchar(10)" json:"-"`
	TextAnalysisCount  int       `gorm:"not null;default:0" json:"-"`
	TextAnalysisWindow string    `gorm:"type:varchar(10)" json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

// LimitUsage 返回配额计数及其所属日期
func (s *UserSettings) LimitUsage(limitType string) (int, string) {
	switch limitType {
	case LimitImageUpload:
		return s.ImageUploadCount, s.ImageUploadWindow
	case LimitBarcodeScan:
		return s.BarcodeScanCount, s.BarcodeScanWindow
	case LimitTextAnalysis:
		return s.TextAnalysisCount, s.TextAnalysisWindow
	}
	return 0, ""
}
