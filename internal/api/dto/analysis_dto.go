package dto

import "time"

type AnalyzeWaterDTO struct {
	Image       string   `json:"image" binding:"required"`
	Percentage  *float64 `json:"percentage" validate:"omitempty,gt=0,lte=100"`
	DurationSec *float64 `json:"durationSeconds" validate:"omitempty,gt=0,lte=600"`
	Servings    *int     `json:"servings" validate:"omitempty,min=1,max=20"`
	LiquidType  *string  `json:"liquidType" validate:"omitempty,max=64"`
}

// AnalyzeBarcodeDTO barcode 与 image 至少提供一个
type AnalyzeBarcodeDTO struct {
	Barcode    *string  `json:"barcode" validate:"omitempty,numeric,min=8,max=14"`
	Image      *string  `json:"image"`
	Percentage *float64 `json:"percentage" validate:"omitempty,gt=0,lte=100"`
	Servings   *int     `json:"servings" validate:"omitempty,min=1,max=20"`
}

type AnalyzeTextDTO struct {
	Description string `json:"description" binding:"required" validate:"max=500"`
}

// AnalysisEntryDTO 分析结果，未落库，确认后由客户端调用 water-entries 写入
type AnalysisEntryDTO struct {
	Ounces              float64 `json:"ounces"`
	Classification      string  `json:"classification"`
	LiquidType          string  `json:"liquidType"`
	Servings            int     `json:"servings"`
	ImageURL            *string `json:"imageUrl"`
	ContainerCapacity   float64 `json:"containerCapacity"`
	HydrationMultiplier float64 `json:"hydrationMultiplier"`
	Fallback            bool    `json:"fallback"`
	Description         string  `json:"description,omitempty"`
	Barcode             string  `json:"barcode,omitempty"`
	ProductName         string  `json:"productName,omitempty"`
	Cached              *bool   `json:"cached,omitempty"`
}

type AnalysisResultDTO struct {
	Success bool              `json:"success"`
	Entry   *AnalysisEntryDTO `json:"entry"`
}

// AnalysisLogDTO 管理端排查解析失败
type AnalysisLogDTO struct {
	ID        string    `json:"id" copier:"-"`
	UserID    uint64    `json:"userId"`
	TraceID   string    `json:"traceId,omitempty"`
	Flow      string    `json:"flow"`
	Pass      string    `json:"pass"`
	Model     string    `json:"model"`
	Response  string    `json:"response"`
	Parsed    bool      `json:"parsed"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latencyMs"`
	CreatedAt time.Time `json:"createdAt"`
}
