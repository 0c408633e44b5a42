package response

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/pkg/llm"
	"Hydro/internal/service"
	stdjson "encoding/json"
	"errors"
	"io"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Success 200 直接返回数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Fail 失败返回封装
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

// Error 将错误映射为状态码与结构化响应
func Error(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var typeErr *json.UnmarshalTypeError
	var stdTypeErr *stdjson.UnmarshalTypeError
	var syntaxErr *stdjson.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &stdTypeErr) || errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) {
		Fail(c, http.StatusBadRequest, "malformed JSON body")
		return
	}

	var limitErr *service.LimitError
	if errors.As(err, &limitErr) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.LimitExceededResponse{
			Error:         limitErr.Error(),
			LimitExceeded: true,
			LimitType:     limitErr.LimitType,
			Current:       limitErr.Current,
			Limit:         limitErr.Limit,
			ResetTime:     limitErr.ResetTime.Format(time.RFC3339),
		})
		return
	}

	var analysisErr *llm.AnalysisError
	if errors.As(err, &analysisErr) {
		status := http.StatusInternalServerError
		if analysisErr.Kind == llm.KindNoWater || analysisErr.Kind == llm.KindAlcohol {
			status = http.StatusUnprocessableEntity
		} else {
			log.ErrorContext(ctx, "analysis failed", "kind", analysisErr.Kind, "err", err)
		}
		c.AbortWithStatusJSON(status, dto.AnalysisErrorResponse{
			Error:     analysisErr.Message,
			ErrorType: analysisErr.Kind,
			Fallback:  analysisErr.Fallback,
		})
		return
	}

	var dbErr *service.DatabaseError
	if errors.As(err, &dbErr) {
		log.ErrorContext(ctx, "database error", "operation", dbErr.Operation, "err", dbErr.Err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.DatabaseErrorResponse{
			Error:     "database unavailable",
			Operation: dbErr.Operation,
			Detail:    dbErr.Err.Error(),
		})
		return
	}

	for sentinel, status := range service.ErrorMap {
		if errors.Is(err, sentinel) {
			if status >= http.StatusInternalServerError {
				log.ErrorContext(ctx, "request failed", "err", err)
			}
			Fail(c, status, sentinel.Error())
			return
		}
	}

	log.ErrorContext(ctx, "unhandled error", "err", err)
	Fail(c, http.StatusInternalServerError, service.UnExpectedError.Error())
}
