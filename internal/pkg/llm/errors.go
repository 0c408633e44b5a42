package llm

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// 分析错误类型，客户端据此决定提示文案与是否提供手动录入
const (
	KindNetwork   = "network"
	KindParse     = "parse"
	KindRateLimit = "rate_limit"
	KindGeneric   = "generic"
	KindNoWater   = "no_water"
	KindAlcohol   = "alcohol"
)

// AnalysisError 大模型分析链路上的错误
type AnalysisError struct {
	Kind     string
	Message  string
	Fallback bool
	Err      error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func NewAnalysisError(kind, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: err}
}

// Classify 将上游调用错误归类，已是 AnalysisError 的原样返回
func Classify(err error) *AnalysisError {
	if err == nil {
		return nil
	}

	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewAnalysisError(KindNetwork, "analysis request timed out", err)
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return NewAnalysisError(KindNetwork, "could not reach analysis service", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"):
		return NewAnalysisError(KindRateLimit, "analysis service is busy, try again shortly", err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "eof"):
		return NewAnalysisError(KindNetwork, "could not reach analysis service", err)
	}
	return NewAnalysisError(KindGeneric, "analysis failed", err)
}
