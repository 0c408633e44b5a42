package service

import (
	"Hydro/internal/pkg/llm"
	"context"
	"time"
)

// SessionStore Token 签名到用户的会话映射
type SessionStore interface {
	SaveSession(ctx context.Context, signature string, userID uint64, ttl time.Duration) error
	SessionUser(ctx context.Context, signature string) (uint64, bool, error)
	DeleteSession(ctx context.Context, signature string) error
}

// Locker 分布式锁
type Locker interface {
	TryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	UnLock(ctx context.Context, key, owner string)
}

// Cache 字符串缓存
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ImageUploader 对象存储上传，返回可访问地址
type ImageUploader interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// ObjectUsage 对象存储占用统计
type ObjectUsage interface {
	Usage(ctx context.Context) (int64, int64, error)
}

// Analyzer 大模型分析
type Analyzer interface {
	EstimateSize(ctx context.Context, img llm.ImageInput, hints llm.Hints) (*llm.SizeEstimate, error)
	Decide(ctx context.Context, img llm.ImageInput, est *llm.SizeEstimate, hints llm.Hints) (*llm.Decision, error)
	AnalyzeText(ctx context.Context, description string) (*llm.Decision, error)
	LookupBarcode(ctx context.Context, barcode, hint string) (*llm.BarcodeProduct, error)
}

// BarcodeDetector 从图片识别条码
type BarcodeDetector interface {
	Detect(ctx context.Context, image []byte) (string, error)
}

// ProductLookup 外部商品库
type ProductLookup interface {
	Lookup(ctx context.Context, code string) (string, bool)
}
