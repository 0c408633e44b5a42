package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalysisLog 一次大模型调用的原始记录，用于排查解析失败
type AnalysisLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    uint64             `bson:"user_id"`
	TraceID   string             `bson:"trace_id,omitempty"`
	Flow      string             `bson:"flow"`
	Pass      string             `bson:"pass"`
	Model     string             `bson:"model"`
	Response  string             `bson:"response"`
	Parsed    bool               `bson:"parsed"`
	Error     string             `bson:"error,omitempty"`
	LatencyMs int64              `bson:"latency_ms"`
	CreatedAt time.Time          `bson:"created_at"`
}
