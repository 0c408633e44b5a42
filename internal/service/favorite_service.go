package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/repository"
	"context"
	"time"
)

type FavoriteService interface {
	List(ctx context.Context, userID uint64) ([]*model.Favorite, error)
	Create(ctx context.Context, userID uint64, req *dto.CreateFavoriteDTO) (*model.Favorite, error)
	Delete(ctx context.Context, userID, id uint64) error
}

type favoriteServiceImpl struct {
	favoriteRepo repository.FavoriteRepo
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepo) FavoriteService {
	return &favoriteServiceImpl{favoriteRepo: favoriteRepo}
}

func (s *favoriteServiceImpl) List(ctx context.Context, userID uint64) ([]*model.Favorite, error) {
	favs, err := s.favoriteRepo.List(ctx, userID)
	if err != nil {
		return nil, dbErr("list favorites", err)
	}
	return favs, nil
}

func (s *favoriteServiceImpl) Create(ctx context.Context, userID uint64, req *dto.CreateFavoriteDTO) (*model.Favorite, error) {
	fav := &model.Favorite{
		UserID:         userID,
		Name:           req.Name,
		Ounces:         req.Ounces,
		Classification: req.Classification,
		LiquidType:     req.LiquidType,
		Servings:       req.Servings,
		ImageURL:       req.ImageURL,
		CreatedAt:      time.Now().UTC(),
	}
	if fav.LiquidType == "" {
		fav.LiquidType = "water"
	}
	if fav.Servings < 1 {
		fav.Servings = 1
	}
	if err := s.favoriteRepo.Create(ctx, fav); err != nil {
		return nil, dbErr("create favorite", err)
	}
	return fav, nil
}

func (s *favoriteServiceImpl) Delete(ctx context.Context, userID, id uint64) error {
	affected, err := s.favoriteRepo.Delete(ctx, userID, id)
	if err != nil {
		return dbErr("delete favorite", err)
	}
	if affected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}
