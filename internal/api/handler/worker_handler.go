package handler

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/pkg/response"
	"Hydro/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// WorkerHandler 供外部调度器触发任务处理，以及管理员查看队列与存储状态
type WorkerHandler struct {
	jobSvc     service.JobService
	storageSvc service.StorageService
}

func NewWorkerHandler(jobSvc service.JobService, storageSvc service.StorageService) *WorkerHandler {
	return &WorkerHandler{jobSvc: jobSvc, storageSvc: storageSvc}
}

func (s *WorkerHandler) ProcessJobs(c *gin.Context) {
	var req dto.ProcessJobsDTO
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.jobSvc.ProcessPending(c.Request.Context(), req.BatchSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *WorkerHandler) CleanupJobs(c *gin.Context) {
	res, err := s.jobSvc.Cleanup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *WorkerHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.jobSvc.EnqueueBatch(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

func (s *WorkerHandler) JobStats(c *gin.Context) {
	var window time.Duration
	if raw := c.Query("windowMinutes"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 24*60 {
			response.Fail(c, http.StatusBadRequest, service.ErrParamInvalid.Error())
			return
		}
		window = time.Duration(v) * time.Minute
	}
	res, err := s.jobSvc.Stats(c.Request.Context(), window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *WorkerHandler) StorageBreakdown(c *gin.Context) {
	res, err := s.storageSvc.Breakdown(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
