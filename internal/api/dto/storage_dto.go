package dto

type TableUsageDTO struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
	Bytes int64  `json:"bytes"`
}

type StorageBreakdownDTO struct {
	Driver           string           `json:"driver"`
	Tables           []*TableUsageDTO `json:"tables"`
	TotalRows        int64            `json:"totalRows"`
	TotalBytes       int64            `json:"totalBytes"`
	Objects          int64            `json:"objects"`
	ObjectBytes      int64            `json:"objectBytes"`
	ObjectStoreError string           `json:"objectStoreError,omitempty"`
}
