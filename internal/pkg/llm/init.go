package llm

import (
	"Hydro/internal/api/config"
	"context"
	"fmt"
	log "log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// NewModel 按配置创建多模态大模型客户端
func NewModel(ctx context.Context, cfg config.LLMConfig) (llms.Model, error) {
	var (
		model llms.Model
		err   error
	)

	switch cfg.Provider {
	case ProviderGoogleAI:
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.ApiKey),
			googleai.WithDefaultModel(cfg.VisionModel),
		)
	case ProviderOpenAI, "":
		opts := []openai.Option{
			openai.WithModel(cfg.VisionModel),
			openai.WithToken(cfg.ApiKey),
		}
		if cfg.URL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.URL))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	if err != nil {
		log.Error("llm client init failed", "provider", cfg.Provider, "err", err)
		return nil, err
	}

	log.Info("llm client initialized", "provider", cfg.Provider, "vision_model", cfg.VisionModel, "text_model", cfg.TextModel)
	return model, nil
}
