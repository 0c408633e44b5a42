package dto

import "time"

// CreateEntryDTO EntryDate 为空时按用户时区取当天；指定 FavoriteID 时缺省字段取自收藏
type CreateEntryDTO struct {
	Ounces         float64    `json:"ounces" validate:"omitempty,gt=0,lte=1000"`
	Classification string     `json:"classification" validate:"omitempty,classification"`
	LiquidType     string     `json:"liquidType" validate:"omitempty,max=64"`
	Servings       int        `json:"servings" validate:"omitempty,min=1,max=20"`
	ImageURL       *string    `json:"imageUrl" validate:"omitempty,url,max=512"`
	Description    *string    `json:"description" validate:"omitempty,max=500"`
	EntryDate      string     `json:"entryDate" validate:"omitempty,datetime=2006-01-02"`
	Timestamp      *time.Time `json:"timestamp"`
	FavoriteID     *uint64    `json:"favoriteId"`
}

type EntryDTO struct {
	ID                  uint64    `json:"id"`
	Ounces              float64   `json:"ounces"`
	EntryDate           string    `json:"entryDate"`
	Timestamp           time.Time `json:"timestamp"`
	Classification      string    `json:"classification"`
	LiquidType          string    `json:"liquidType"`
	ImageURL            *string   `json:"imageUrl,omitempty"`
	Description         *string   `json:"description,omitempty"`
	Servings            int       `json:"servings"`
	CreatedFromFavorite bool      `json:"createdFromFavorite"`
}

type WaterTodayDTO struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type WaterTodayResultDTO struct {
	Date        string      `json:"date"`
	TotalOunces float64     `json:"totalOunces"`
	DailyGoal   float64     `json:"dailyGoal"`
	Progress    float64     `json:"progress"`
	Entries     []*EntryDTO `json:"entries"`
}

// HistoryDayDTO Source 为 entries 或 aggregate
type HistoryDayDTO struct {
	Date        string  `json:"date"`
	TotalOunces float64 `json:"totalOunces"`
	EntryCount  int     `json:"entryCount"`
	GoalMet     bool    `json:"goalMet"`
	Source      string  `json:"source"`
}

type WeeklySummaryDTO struct {
	WeekStartDate string  `json:"weekStartDate"`
	DaysWithData  int     `json:"daysWithData"`
	TotalOunces   float64 `json:"totalOunces"`
	AverageOunces float64 `json:"averageOunces"`
}

type WaterHistoryDTO struct {
	From            string              `json:"from"`
	To              string              `json:"to"`
	Days            []*HistoryDayDTO    `json:"days"`
	WeeklySummaries []*WeeklySummaryDTO `json:"weeklySummaries"`
	TotalOunces     float64             `json:"totalOunces"`
	AverageOunces   float64             `json:"averageOunces"`
	DaysWithData    int                 `json:"daysWithData"`
	GoalMetDays     int                 `json:"goalMetDays"`
}
