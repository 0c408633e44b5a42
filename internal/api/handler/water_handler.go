package handler

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/pkg/response"
	"Hydro/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type WaterHandler struct {
	waterSvc   service.WaterService
	cleanupSvc service.CleanupService
}

func NewWaterHandler(waterSvc service.WaterService, cleanupSvc service.CleanupService) *WaterHandler {
	return &WaterHandler{waterSvc: waterSvc, cleanupSvc: cleanupSvc}
}

func (s *WaterHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateEntryDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := s.waterSvc.CreateEntry(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

func (s *WaterHandler) DeleteEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, service.ErrParamInvalid.Error())
		return
	}
	if err := s.waterSvc.DeleteEntry(c.Request.Context(), userID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "entry deleted"})
}

func (s *WaterHandler) Today(c *gin.Context) {
	var req dto.WaterTodayDTO
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.waterSvc.Today(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *WaterHandler) History(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			response.Fail(c, http.StatusBadRequest, service.ErrParamInvalid.Error())
			return
		}
		days = v
	}
	res, err := s.waterSvc.History(c.Request.Context(), userID(c), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *WaterHandler) CleanupOldEntries(c *gin.Context) {
	var req dto.CleanupRequestDTO
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.cleanupSvc.CleanupOldEntries(c.Request.Context(), userID(c), req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res.View())
}
