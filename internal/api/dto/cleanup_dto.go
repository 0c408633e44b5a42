package dto

type CleanupRequestDTO struct {
	Force bool `json:"force"`
}

type TypeStatDTO struct {
	Count  int     `json:"count"`
	Ounces float64 `json:"ounces"`
}

type DeletionDetailsDTO struct {
	ByType   map[string]*TypeStatDTO `json:"byType"`
	ByLiquid map[string]*TypeStatDTO `json:"byLiquid"`
}

// CleanupResultDTO Skipped 为 true 时只有 message 与日期字段有意义
type CleanupResultDTO struct {
	Skipped                bool                `json:"-"`
	Message                string              `json:"message"`
	EntriesProcessed       int                 `json:"entriesProcessed"`
	ImagesDeleted          int                 `json:"imagesDeleted"`
	DailyAggregatesCreated int                 `json:"dailyAggregatesCreated"`
	WeeklySummariesUpdated int                 `json:"weeklySummariesUpdated"`
	LastCleanupDate        string              `json:"lastCleanupDate"`
	NextCleanup            string              `json:"nextCleanup"`
	DeletionDetails        *DeletionDetailsDTO `json:"deletionDetails"`
}

type CleanupSkippedDTO struct {
	Skipped         bool   `json:"skipped"`
	Message         string `json:"message"`
	LastCleanupDate string `json:"lastCleanupDate"`
	NextCleanup     string `json:"nextCleanup"`
}

// View 按是否跳过返回对应的响应体
func (r *CleanupResultDTO) View() any {
	if r.Skipped {
		return &CleanupSkippedDTO{
			Skipped:         true,
			Message:         r.Message,
			LastCleanupDate: r.LastCleanupDate,
			NextCleanup:     r.NextCleanup,
		}
	}
	return r
}
