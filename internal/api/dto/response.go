package dto

// ErrorResponse 通用错误
type ErrorResponse struct {
	Error string `json:"error"`
}

// LimitExceededResponse 429 时返回，客户端据 resetTime 提示何时恢复
type LimitExceededResponse struct {
	Error         string `json:"error"`
	LimitExceeded bool   `json:"limitExceeded"`
	LimitType     string `json:"limitType"`
	Current       int    `json:"current"`
	Limit         int    `json:"limit"`
	ResetTime     string `json:"resetTime"`
}

// AnalysisErrorResponse fallback 表示是否提供手动录入
type AnalysisErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"errorType"`
	Fallback  bool   `json:"fallback"`
}

// DatabaseErrorResponse 503 时附带诊断字段
type DatabaseErrorResponse struct {
	Error     string `json:"error"`
	Operation string `json:"operation"`
	Detail    string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
