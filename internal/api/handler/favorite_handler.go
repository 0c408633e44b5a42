package handler

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/pkg/response"
	"Hydro/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	favoriteSvc service.FavoriteService
}

func NewFavoriteHandler(favoriteSvc service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteSvc: favoriteSvc}
}

func (s *FavoriteHandler) List(c *gin.Context) {
	favs, err := s.favoriteSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, favs)
}

func (s *FavoriteHandler) Create(c *gin.Context) {
	var req dto.CreateFavoriteDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	fav, err := s.favoriteSvc.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fav)
}

func (s *FavoriteHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, service.ErrParamInvalid.Error())
		return
	}
	if err := s.favoriteSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "favorite deleted"})
}
