package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/repository"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

// 参与统计的业务表
var trackedTables = []string{
	"water_entries",
	"daily_water_aggregates",
	"weekly_summaries",
	"barcode_cache",
	"user_settings",
	"users",
	"favorites",
	"jobs",
}

type StorageService interface {
	Breakdown(ctx context.Context) (*dto.StorageBreakdownDTO, error)
}

type storageServiceImpl struct {
	storageRepo repository.StorageRepo
	objects     ObjectUsage
}

// NewStorageService objects 可为 nil
func NewStorageService(storageRepo repository.StorageRepo, objects ObjectUsage) StorageService {
	return &storageServiceImpl{storageRepo: storageRepo, objects: objects}
}

// Breakdown 对象存储统计失败不影响表统计结果
func (s *storageServiceImpl) Breakdown(ctx context.Context) (*dto.StorageBreakdownDTO, error) {
	usage, err := s.storageRepo.TableUsage(ctx, trackedTables)
	if err != nil {
		return nil, dbErr("table usage", err)
	}

	out := &dto.StorageBreakdownDTO{Driver: s.storageRepo.Dialect()}
	if err = copier.Copy(&out.Tables, &usage); err != nil {
		return nil, err
	}
	for _, t := range usage {
		out.TotalRows += t.Rows
		out.TotalBytes += t.Bytes
	}

	if s.objects != nil {
		objects, size, oerr := s.objects.Usage(ctx)
		if oerr != nil {
			log.WarnContext(ctx, "object store usage failed", "err", oerr)
			out.ObjectStoreError = oerr.Error()
		} else {
			out.Objects, out.ObjectBytes = objects, size
		}
	}
	return out, nil
}
