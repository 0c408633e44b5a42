package sdk

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// RetryPolicy 指数退避，间隔从 InitialBackoff 翻倍到 MaxBackoff
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Retryable 为 nil 时不重试
	Retryable func(kind ErrorKind) bool
}

// DefaultFetchPolicy 只读请求的默认策略
func DefaultFetchPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Retryable:      transient,
	}
}

// DefaultWritePolicy 记录饮水等写操作的重试策略，鉴权与参数错误不重试
func DefaultWritePolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    2,
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		Retryable: func(kind ErrorKind) bool {
			switch kind {
			case KindNetwork, KindTimeout, KindDatabase:
				return true
			}
			return false
		},
	}
}

func transient(kind ErrorKind) bool {
	switch kind {
	case KindNetwork, KindTimeout, KindServer, KindDatabase:
		return true
	}
	return false
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// backoff 第 attempt 次请求失败后的等待时间
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, p.MaxBackoff)
}

// apply 把策略配置到 resty 客户端上，等待期间 ctx 取消会立即返回
func (p RetryPolicy) apply(rc *resty.Client) *resty.Client {
	p = p.normalized()
	if p.MaxAttempts <= 1 || p.Retryable == nil {
		return rc
	}
	return rc.
		SetRetryCount(p.MaxAttempts - 1).
		SetRetryWaitTime(p.InitialBackoff).
		SetRetryMaxWaitTime(p.MaxBackoff).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp == nil || resp.Request == nil {
				return 0, nil
			}
			return p.backoff(resp.Request.Attempt), nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return p.Retryable(responseKind(resp, err))
		})
}

// responseKind 成功响应返回空值
func responseKind(resp *resty.Response, err error) ErrorKind {
	if err != nil {
		return KindOf(transportError(err))
	}
	if resp == nil || !resp.IsError() {
		return ""
	}
	body, _ := resp.Error().(*errorBody)
	if body == nil {
		body = &errorBody{}
	}
	return KindOf(statusError(resp.StatusCode(), body))
}
