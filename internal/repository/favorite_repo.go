package repository

import (
	"Hydro/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type FavoriteRepo interface {
	List(ctx context.Context, userID uint64) ([]*model.Favorite, error)
	Get(ctx context.Context, userID, id uint64) (*model.Favorite, error)
	Create(ctx context.Context, fav *model.Favorite) error
	Delete(ctx context.Context, userID, id uint64) (int64, error)
}

type favoriteRepoImpl struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) FavoriteRepo {
	return &favoriteRepoImpl{db: db}
}

func (s *favoriteRepoImpl) List(ctx context.Context, userID uint64) ([]*model.Favorite, error) {
	favs := make([]*model.Favorite, 0)
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&favs)
	if result.Error != nil {
		return nil, result.Error
	}
	return favs, nil
}

func (s *favoriteRepoImpl) Get(ctx context.Context, userID, id uint64) (*model.Favorite, error) {
	fav := &model.Favorite{}
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(fav)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return fav, nil
}

func (s *favoriteRepoImpl) Create(ctx context.Context, fav *model.Favorite) error {
	return s.db.WithContext(ctx).Create(fav).Error
}

func (s *favoriteRepoImpl) Delete(ctx context.Context, userID, id uint64) (int64, error) {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Favorite{})
	return result.RowsAffected, result.Error
}
