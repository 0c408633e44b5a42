package barcode

import (
	"Hydro/internal/api/config"
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

type productResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
		Quantity    string `json:"quantity"`
	} `json:"product"`
}

// ProductLookup 查询 Open Food Facts，结果只作为大模型的提示
type ProductLookup struct {
	client  *resty.Client
	enabled bool
}

func NewProductLookup(cfg config.OpenFoodFactsConfig) *ProductLookup {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("User-Agent", "Hydro/1.0")

	return &ProductLookup{
		client:  client,
		enabled: cfg.Enable && cfg.BaseURL != "",
	}
}

// Lookup 返回 "品牌 名称 规格" 形式的描述，查不到时 ok 为 false，错误只记录
func (p *ProductLookup) Lookup(ctx context.Context, code string) (string, bool) {
	if !p.enabled {
		return "", false
	}

	var result productResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("code", code).
		SetQueryParam("fields", "product_name,brands,quantity").
		SetResult(&result).
		Get("/api/v2/product/{code}.json")
	if err != nil {
		log.WarnContext(ctx, "product lookup failed", "barcode", code, "err", err)
		return "", false
	}
	if resp.IsError() || result.Status != 1 {
		return "", false
	}

	parts := make([]string, 0, 3)
	for _, s := range []string{result.Product.Brands, result.Product.ProductName, result.Product.Quantity} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}
