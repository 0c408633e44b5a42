package sdk

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorKind 客户端据此决定提示文案与是否重试
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindAuth       ErrorKind = "auth"
	KindServer     ErrorKind = "server"
	KindDatabase   ErrorKind = "database"
	KindRateLimit  ErrorKind = "rate_limit"
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindAnalysis   ErrorKind = "analysis"
)

var ErrNotSignedIn = errors.New("not signed in")

// APIError 非 2xx 响应或传输失败
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string

	// 503 诊断字段
	Operation string
	Detail    string

	// 分析失败时的服务端分类
	AnalysisKind string
	Fallback     bool

	Err error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimitError 429，ResetTime 之前同类请求直接本地拒绝
type RateLimitError struct {
	LimitType string
	Current   int
	Limit     int
	ResetTime time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily %s limit reached (%d/%d), resets at %s", e.LimitType, e.Current, e.Limit, e.ResetTime.Format(time.RFC3339))
}

// errorBody 服务端各类错误响应的并集
type errorBody struct {
	Error         string `json:"error"`
	LimitExceeded bool   `json:"limitExceeded"`
	LimitType     string `json:"limitType"`
	Current       int    `json:"current"`
	Limit         int    `json:"limit"`
	ResetTime     string `json:"resetTime"`
	ErrorType     string `json:"errorType"`
	Fallback      bool   `json:"fallback"`
	Operation     string `json:"operation"`
	Detail        string `json:"detail"`
}

func transportError(err error) error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &APIError{Kind: kind, Err: err}
}

func statusError(status int, body *errorBody) error {
	if status == http.StatusTooManyRequests && body.LimitExceeded {
		reset, _ := time.Parse(time.RFC3339, body.ResetTime)
		return &RateLimitError{
			LimitType: body.LimitType,
			Current:   body.Current,
			Limit:     body.Limit,
			ResetTime: reset,
		}
	}

	e := &APIError{Status: status, Message: body.Error}
	switch {
	case body.ErrorType != "":
		e.Kind = KindAnalysis
		e.AnalysisKind = body.ErrorType
		e.Fallback = body.Fallback
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusServiceUnavailable && body.Operation != "":
		e.Kind = KindDatabase
		e.Operation = body.Operation
		e.Detail = body.Detail
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case status >= http.StatusInternalServerError:
		e.Kind = KindServer
	default:
		e.Kind = KindValidation
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// KindOf 返回错误分类，未知错误视为网络错误
func KindOf(err error) ErrorKind {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return KindRateLimit
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrNotSignedIn) {
		return KindAuth
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindNetwork
}

// OffersManualEntry 图片与条码分析失败时是否提供手动录入
func OffersManualEntry(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindAnalysis {
		return apiErr.Fallback
	}
	return false
}
