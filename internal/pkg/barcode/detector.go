package barcode

import (
	"Hydro/internal/api/config"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

var (
	ErrNotConfigured = errors.New("barcode detection is not configured")
	ErrNotFound      = errors.New("no barcode found in image")
)

type annotateRequest struct {
	Requests []annotateItem `json:"requests"`
}

type annotateItem struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Detector 调用 OCR 接口识别图片中的条码数字
type Detector struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewDetector(cfg config.VisionConfig) *Detector {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Content-Type", "application/json")

	return &Detector{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.ApiKey,
	}
}

// Detect 返回校验通过的条码
func (d *Detector) Detect(ctx context.Context, image []byte) (string, error) {
	if d.endpoint == "" {
		return "", ErrNotConfigured
	}

	item := annotateItem{Features: []annotateFeature{{Type: "TEXT_DETECTION", MaxResults: 10}}}
	item.Image.Content = base64.StdEncoding.EncodeToString(image)

	var result annotateResponse
	req := d.client.R().
		SetContext(ctx).
		SetBody(annotateRequest{Requests: []annotateItem{item}}).
		SetResult(&result)
	if d.apiKey != "" {
		req.SetQueryParam("key", d.apiKey)
	}

	resp, err := req.Post(d.endpoint)
	if err != nil {
		log.ErrorContext(ctx, "barcode detection request failed", "err", err)
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("barcode detection returned status %d", resp.StatusCode())
	}

	for _, r := range result.Responses {
		if r.Error != nil {
			return "", fmt.Errorf("barcode detection error %d: %s", r.Error.Code, r.Error.Message)
		}
		for _, ann := range r.TextAnnotations {
			if code, ok := ExtractCode(ann.Description); ok {
				log.InfoContext(ctx, "barcode detected", "barcode", code)
				return code, nil
			}
		}
	}
	return "", ErrNotFound
}
