package handler

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/pkg/response"
	"Hydro/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analysisSvc service.AnalysisService
	logSvc      service.AnalysisLogService
}

func NewAnalysisHandler(analysisSvc service.AnalysisService, logSvc service.AnalysisLogService) *AnalysisHandler {
	return &AnalysisHandler{analysisSvc: analysisSvc, logSvc: logSvc}
}

func (s *AnalysisHandler) AnalyzeWater(c *gin.Context) {
	var req dto.AnalyzeWaterDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.analysisSvc.AnalyzeWater(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AnalysisHandler) AnalyzeBarcode(c *gin.Context) {
	var req dto.AnalyzeBarcodeDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.analysisSvc.AnalyzeBarcode(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req dto.AnalyzeTextDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.analysisSvc.AnalyzeText(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// RecentLogs 管理端查看某用户最近的大模型原始响应
func (s *AnalysisHandler) RecentLogs(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Query("userId"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, service.ErrParamInvalid.Error())
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := s.logSvc.Recent(c.Request.Context(), uid, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}
