package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/pkg/mongo"
	"context"

	"github.com/jinzhu/copier"
)

const maxAnalysisLogs = 100

// AnalysisLogReader 大模型原始响应日志
type AnalysisLogReader interface {
	Recent(ctx context.Context, userID uint64, limit int) ([]*mongo.AnalysisLog, error)
}

type AnalysisLogService interface {
	Recent(ctx context.Context, userID uint64, limit int) ([]*dto.AnalysisLogDTO, error)
}

type analysisLogServiceImpl struct {
	logs AnalysisLogReader
}

// NewAnalysisLogService logs 为 nil 时查询返回 ErrAnalysisLogsDisabled
func NewAnalysisLogService(logs AnalysisLogReader) AnalysisLogService {
	return &analysisLogServiceImpl{logs: logs}
}

func (s *analysisLogServiceImpl) Recent(ctx context.Context, userID uint64, limit int) ([]*dto.AnalysisLogDTO, error) {
	if s.logs == nil {
		return nil, ErrAnalysisLogsDisabled
	}
	if userID == 0 {
		return nil, ErrParamInvalid
	}
	if limit <= 0 || limit > maxAnalysisLogs {
		limit = 20
	}

	logs, err := s.logs.Recent(ctx, userID, limit)
	if err != nil {
		return nil, dbErr("list analysis logs", err)
	}
	out := make([]*dto.AnalysisLogDTO, 0, len(logs))
	if err = copier.Copy(&out, &logs); err != nil {
		return nil, err
	}
	for i, l := range logs {
		out[i].ID = l.ID.Hex()
	}
	return out, nil
}
