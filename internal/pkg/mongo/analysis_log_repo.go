package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AnalysisLogRepo interface {
	Save(ctx context.Context, entry *AnalysisLog) error
	Recent(ctx context.Context, userID uint64, limit int) ([]*AnalysisLog, error)
}

type analysisLogRepoImpl struct {
	col *mongo.Collection
}

func NewAnalysisLogRepo(db *mongo.Database, collection string) AnalysisLogRepo {
	return &analysisLogRepoImpl{
		col: db.Collection(collection),
	}
}

func (s *analysisLogRepoImpl) Save(ctx context.Context, entry *AnalysisLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.col.InsertOne(ctx, entry)
	return err
}

// Recent 按时间倒序拉取用户最近的调用记录
func (s *analysisLogRepoImpl) Recent(ctx context.Context, userID uint64, limit int) ([]*AnalysisLog, error) {
	if limit <= 0 {
		limit = 20
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	logs := make([]*AnalysisLog, 0)
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
