package sdk

import (
	"Hydro/internal/model"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	weekDays  = 7
	monthDays = 30
)

// InitialData 启动时并发拉取的数据，Errors 记录非关键请求的失败
type InitialData struct {
	Settings  *Settings
	Today     *Today
	Week      *History
	Month     *History
	Favorites []*Favorite
	Errors    map[string]error
}

// Partial 是否有非关键数据缺失
func (d *InitialData) Partial() bool {
	return len(d.Errors) > 0
}

// LoadInitialData 设置为关键请求，失败时整体失败；其余请求失败只记录
func (c *Client) LoadInitialData(ctx context.Context) (*InitialData, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	data := &InitialData{Errors: make(map[string]error)}
	var mu sync.Mutex
	optional := func(name string, fn func(ctx context.Context) error) func() error {
		return func() error {
			if err := fn(ctx); err != nil {
				log.WarnContext(ctx, "initial load fetch failed", "fetch", name, "err", err)
				mu.Lock()
				data.Errors[name] = err
				mu.Unlock()
			}
			return nil
		}
	}

	g.Go(func() error {
		settings, err := c.Settings(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "load settings")
		}
		data.Settings = settings
		return nil
	})
	g.Go(optional(keyToday, func(ctx context.Context) error {
		today, err := c.Today(ctx)
		data.Today = today
		return err
	}))
	g.Go(optional("week", func(ctx context.Context) error {
		week, err := c.History(ctx, weekDays)
		data.Week = week
		return err
	}))
	g.Go(optional("month", func(ctx context.Context) error {
		month, err := c.History(ctx, monthDays)
		data.Month = month
		return err
	}))
	g.Go(optional(keyFavorites, func(ctx context.Context) error {
		favs, err := c.Favorites(ctx)
		data.Favorites = favs
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) Settings(ctx context.Context) (*Settings, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	settings, err := cached(c.cache, keySettings, func() (*Settings, error) {
		var out Settings
		if err := c.fetch(ctx, http.MethodGet, "/user/settings", nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	c.state.setSettings(settings)
	return settings, nil
}

// UpdateSettings 目标或时区变化会影响当日与历史统计
func (c *Client) UpdateSettings(ctx context.Context, req *UpdateSettings) (*Settings, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var out Settings
	if err := c.send(ctx, http.MethodPut, "/user/settings", nil, req, &out); err != nil {
		return nil, err
	}
	c.cache.invalidate(keySettings, keyToday, keyHistory)
	c.cache.set(keySettings, &out)
	c.state.setSettings(&out)
	return &out, nil
}

// Today water-today 为只读语义，按读请求重试
func (c *Client) Today(ctx context.Context) (*Today, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	today, err := cached(c.cache, keyToday, func() (*Today, error) {
		var out Today
		if err := c.fetch(ctx, http.MethodPost, "/water-today", nil, struct{}{}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	c.state.setToday(today)
	return today, nil
}

func (c *Client) History(ctx context.Context, days int) (*History, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	return cached(c.cache, keyHistory+":"+strconv.Itoa(days), func() (*History, error) {
		var out History
		query := map[string]string{"days": strconv.Itoa(days)}
		if err := c.fetch(ctx, http.MethodGet, "/water-history", query, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (c *Client) Favorites(ctx context.Context) ([]*Favorite, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	return cached(c.cache, keyFavorites, func() ([]*Favorite, error) {
		var out []*Favorite
		if err := c.fetch(ctx, http.MethodGet, "/favorites", nil, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (c *Client) CreateFavorite(ctx context.Context, req *CreateFavorite) (*Favorite, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var out Favorite
	if err := c.send(ctx, http.MethodPost, "/favorites", nil, req, &out); err != nil {
		return nil, err
	}
	c.cache.invalidate(keyFavorites)
	return &out, nil
}

func (c *Client) DeleteFavorite(ctx context.Context, id uint64) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.send(ctx, http.MethodDelete, "/favorites/"+strconv.FormatUint(id, 10), nil, nil, nil); err != nil {
		return err
	}
	c.cache.invalidate(keyFavorites)
	return nil
}

// AddWater 先累加本地总量再写服务端，失败时回滚
func (c *Client) AddWater(ctx context.Context, req *CreateEntry) (*Entry, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	tentative := req.Ounces
	c.state.applyDelta(tentative)

	var out Entry
	err := c.write(ctx, http.MethodPost, "/water-entries", req, &out)
	if err != nil {
		c.state.applyDelta(-tentative)
		log.WarnContext(ctx, "add water failed, rolled back", "ounces", tentative, "kind", KindOf(err), "err", err)
		return nil, err
	}

	c.state.confirmEntry(&out, tentative)
	c.cache.invalidate(keyToday, keyHistory)
	return &out, nil
}

// DeleteWater 先从本地移除，服务端失败时恢复；记录已不存在视为成功
func (c *Client) DeleteWater(ctx context.Context, id uint64) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	removed := c.state.removeEntry(id)

	err := c.write(ctx, http.MethodDelete, "/water-entries/"+strconv.FormatUint(id, 10), nil, nil)
	if err != nil && KindOf(err) != KindNotFound {
		if removed != nil {
			c.state.restoreEntry(removed)
		}
		return err
	}

	c.cache.invalidate(keyToday, keyHistory)
	return nil
}

func (c *Client) CleanupOldEntries(ctx context.Context, force bool) (*CleanupResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var out CleanupResult
	body := map[string]bool{"force": force}
	if err := c.send(ctx, http.MethodPost, "/cleanup-old-entries", nil, body, &out); err != nil {
		return nil, err
	}
	if !out.Skipped && out.EntriesProcessed > 0 {
		c.cache.invalidate(keyHistory)
	}
	return &out, nil
}

// cooldownError 冷却期内不发请求
func (c *Client) cooldownError(limitType string) error {
	until, ok := c.state.Cooldown(limitType, c.now())
	if !ok {
		return nil
	}
	return &RateLimitError{LimitType: limitType, ResetTime: until}
}

// analyze 分析接口不重试，429 时记录冷却
func (c *Client) analyze(ctx context.Context, limitType, path string, body any) (*AnalysisResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if err := c.cooldownError(limitType); err != nil {
		return nil, err
	}

	var out AnalysisResult
	err := c.send(ctx, http.MethodPost, path, nil, body, &out)
	if err != nil {
		var rl *RateLimitError
		if pkgerrors.As(err, &rl) {
			reset := rl.ResetTime
			if reset.IsZero() {
				reset = c.now().Add(time.Hour)
			}
			c.state.setCooldown(limitType, reset)
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzeWater(ctx context.Context, req *AnalyzeWater) (*AnalysisResult, error) {
	return c.analyze(ctx, model.LimitImageUpload, "/analyze-water", req)
}

func (c *Client) AnalyzeBarcode(ctx context.Context, req *AnalyzeBarcode) (*AnalysisResult, error) {
	return c.analyze(ctx, model.LimitBarcodeScan, "/analyze-barcode", req)
}

func (c *Client) AnalyzeText(ctx context.Context, description string) (*AnalysisResult, error) {
	return c.analyze(ctx, model.LimitTextAnalysis, "/analyze-text", map[string]string{"description": description})
}
