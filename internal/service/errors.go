package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrParamInvalid         = errors.New("invalid parameters")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExist            = errors.New("username already taken")
	ErrPasswordIncorrect    = errors.New("incorrect username or password")
	ErrSettingsNotFound     = errors.New("user settings not found")
	ErrEntryNotFound        = errors.New("water entry not found")
	ErrFavoriteNotFound     = errors.New("favorite not found")
	ErrInvalidImage         = errors.New("image could not be decoded")
	ErrImageUpload          = errors.New("image upload failed")
	ErrMissingBarcode       = errors.New("barcode or image is required")
	ErrUnknownJobType       = errors.New("unknown job type")
	ErrInvalidPayload       = errors.New("invalid job payload")
	ErrCleanupRunning       = errors.New("cleanup already running for this user")
	ErrAnalysisLogsDisabled = errors.New("analysis logs are not enabled")
	UnauthorizedError       = errors.New("unauthorized")
	ForbiddenError          = errors.New("forbidden")
	UnExpectedError         = errors.New("unexpected error, please try again later")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         http.StatusBadRequest,
	ErrUserNotFound:         http.StatusNotFound,
	ErrUserExist:            http.StatusConflict,
	ErrPasswordIncorrect:    http.StatusUnauthorized,
	ErrSettingsNotFound:     http.StatusNotFound,
	ErrEntryNotFound:        http.StatusNotFound,
	ErrFavoriteNotFound:     http.StatusNotFound,
	ErrInvalidImage:         http.StatusBadRequest,
	ErrImageUpload:          http.StatusInternalServerError,
	ErrMissingBarcode:       http.StatusBadRequest,
	ErrUnknownJobType:       http.StatusBadRequest,
	ErrInvalidPayload:       http.StatusBadRequest,
	ErrCleanupRunning:       http.StatusConflict,
	ErrAnalysisLogsDisabled: http.StatusNotFound,
	UnauthorizedError:       http.StatusUnauthorized,
	ForbiddenError:          http.StatusForbidden,
	UnExpectedError:         http.StatusInternalServerError,
}

// LimitError 超出每日配额
type LimitError struct {
	LimitType string
	Current   int
	Limit     int
	ResetTime time.Time
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily %s limit reached (%d/%d)", e.LimitType, e.Current, e.Limit)
}

// DatabaseError 数据库操作失败，Operation 标识出错的步骤
type DatabaseError struct {
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// dbErr err 为 nil 时返回 nil
func dbErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &DatabaseError{Operation: operation, Err: err}
}
