// Package sdk 饮水记录客户端，负责请求重试、读缓存失效与乐观更新
package sdk

import (
	"Hydro/internal/api/dto"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

type (
	Token          = dto.TokenDTO
	Settings       = dto.SettingsDTO
	UpdateSettings = dto.UpdateSettingsDTO
	Entry          = dto.EntryDTO
	CreateEntry    = dto.CreateEntryDTO
	Today          = dto.WaterTodayResultDTO
	History        = dto.WaterHistoryDTO
	AnalyzeWater   = dto.AnalyzeWaterDTO
	AnalyzeBarcode = dto.AnalyzeBarcodeDTO
	AnalysisResult = dto.AnalysisResultDTO
	CreateFavorite = dto.CreateFavoriteDTO
	TypeStat       = dto.TypeStatDTO
)

// Favorite 收藏的饮品
type Favorite struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Ounces         float64   `json:"ounces"`
	Classification string    `json:"classification"`
	LiquidType     string    `json:"liquidType"`
	Servings       int       `json:"servings"`
	ImageURL       *string   `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CleanupResult Skipped 为 true 时只有 Message 与日期字段有值
type CleanupResult struct {
	Skipped                bool   `json:"skipped"`
	Message                string `json:"message"`
	EntriesProcessed       int    `json:"entriesProcessed"`
	ImagesDeleted          int    `json:"imagesDeleted"`
	DailyAggregatesCreated int    `json:"dailyAggregatesCreated"`
	WeeklySummariesUpdated int    `json:"weeklySummariesUpdated"`
	LastCleanupDate        string `json:"lastCleanupDate"`
	NextCleanup            string `json:"nextCleanup"`
	DeletionDetails        *struct {
		ByType   map[string]*TypeStat `json:"byType"`
		ByLiquid map[string]*TypeStat `json:"byLiquid"`
	} `json:"deletionDetails,omitempty"`
}

type Client struct {
	baseURL     string
	hc          *http.Client
	timeout     time.Duration
	fetchPolicy RetryPolicy
	writePolicy RetryPolicy

	// http 不重试，reads 与 writes 分别按 fetchPolicy、writePolicy 重试
	http   *resty.Client
	reads  *resty.Client
	writes *resty.Client

	state *State
	cache *queryCache
	now   func() time.Time
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient 测试时注入 httptest 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithFetchPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.fetchPolicy = p }
}

func WithWritePolicy(p RetryPolicy) Option {
	return func(c *Client) { c.writePolicy = p }
}

// WithCacheTTL 为 0 时关闭读缓存
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = newQueryCache(ttl) }
}

// WithToken 恢复已保存的会话
func WithToken(token string) Option {
	return func(c *Client) { c.state.setSession(token, 0, "") }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		timeout:     30 * time.Second,
		fetchPolicy: DefaultFetchPolicy(),
		writePolicy: DefaultWritePolicy(),
		state:       newState(),
		cache:       newQueryCache(time.Minute),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = c.newResty(RetryPolicy{})
	c.reads = c.newResty(c.fetchPolicy)
	c.writes = c.newResty(c.writePolicy)
	return c
}

func (c *Client) newResty(policy RetryPolicy) *resty.Client {
	rc := resty.New()
	if c.hc != nil {
		rc = resty.NewWithClient(c.hc)
	}
	rc.SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return policy.apply(rc)
}

// State 当前会话状态
func (c *Client) State() *State {
	return c.state
}

// send 单次请求，非 2xx 转换为 APIError 或 RateLimitError
func (c *Client) send(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	return c.execute(ctx, c.http, method, path, query, body, out)
}

// fetch 只读请求，按 fetchPolicy 退避重试
func (c *Client) fetch(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	return c.execute(ctx, c.reads, method, path, query, body, out)
}

// write 饮水记录增删，按 writePolicy 重试
func (c *Client) write(ctx context.Context, method, path string, body, out any) error {
	return c.execute(ctx, c.writes, method, path, nil, body, out)
}

func (c *Client) execute(ctx context.Context, rc *resty.Client, method, path string, query map[string]string, body, out any) error {
	var errBody errorBody
	req := rc.R().
		SetContext(ctx).
		SetError(&errBody)
	if token := c.state.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, "/api"+path)
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), &errBody)
	}
	return nil
}

func (c *Client) requireSession() error {
	if c.state.Token() == "" {
		return ErrNotSignedIn
	}
	return nil
}
