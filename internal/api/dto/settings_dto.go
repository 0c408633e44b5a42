package dto

type SettingsDTO struct {
	DailyGoal       float64 `json:"dailyGoal"`
	WeeklyGoal      float64 `json:"weeklyGoal"`
	HandSize        string  `json:"handSize"`
	SipSize         float64 `json:"sipSize"`
	WaterUnit       string  `json:"waterUnit"`
	Timezone        string  `json:"timezone"`
	LastCleanupDate string  `json:"lastCleanupDate"`
}

// UpdateSettingsDTO 只更新非空字段
type UpdateSettingsDTO struct {
	DailyGoal  *float64 `json:"dailyGoal" validate:"omitempty,gt=0,lte=1000"`
	WeeklyGoal *float64 `json:"weeklyGoal" validate:"omitempty,gt=0,lte=7000"`
	HandSize   *string  `json:"handSize" validate:"omitempty,handsize"`
	SipSize    *float64 `json:"sipSize" validate:"omitempty,gt=0,lte=10"`
	WaterUnit  *string  `json:"waterUnit" validate:"omitempty,oneof=oz ml"`
	Timezone   *string  `json:"timezone" validate:"omitempty,timezone"`
}

// LimitStatus 配额检查结果
type LimitStatus struct {
	LimitType string `json:"limitType"`
	Allowed   bool   `json:"allowed"`
	Current   int    `json:"current"`
	Limit     int    `json:"limit"`
	ResetTime string `json:"resetTime"`
}
