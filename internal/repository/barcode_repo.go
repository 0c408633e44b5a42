package repository

import (
	"Hydro/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BarcodeRepo interface {
	Get(ctx context.Context, barcode string) (*model.BarcodeCache, error)
	Save(ctx context.Context, item *model.BarcodeCache) error
}

type barcodeRepoImpl struct {
	db *gorm.DB
}

func NewBarcodeRepo(db *gorm.DB) BarcodeRepo {
	return &barcodeRepoImpl{db: db}
}

func (s *barcodeRepoImpl) Get(ctx context.Context, barcode string) (*model.BarcodeCache, error) {
	item := &model.BarcodeCache{}
	result := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return item, nil
}

// Save 已存在的条码保持不变，先写入者为准
func (s *barcodeRepoImpl) Save(ctx context.Context, item *model.BarcodeCache) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "barcode"}}, DoNothing: true}).
		Create(item).Error
}
