package llm

import (
	"Hydro/internal/api/config"
	"Hydro/internal/pkg/mongo"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const (
	FlowImage   = "image"
	FlowText    = "text"
	FlowBarcode = "barcode"

	PassSizeEstimate = "size_estimate"
	PassDecision     = "decision"
	PassSingle       = "single"
)

// ImageInput 已压缩的图片数据
type ImageInput struct {
	Data     []byte
	MimeType string
}

// Hints 用户提供的饮用上下文，拼接进提示词
type Hints struct {
	HandSize    string
	LiquidType  string
	Percentage  float64
	DurationSec float64
}

func (h Hints) text() string {
	var sb strings.Builder
	if h.LiquidType != "" {
		fmt.Fprintf(&sb, "The user says the drink is %s.\n", h.LiquidType)
	}
	if h.Percentage > 0 {
		fmt.Fprintf(&sb, "The user drank about %s%% of the container.\n", strconv.FormatFloat(h.Percentage, 'f', -1, 64))
	}
	if h.DurationSec > 0 {
		sb.WriteString("The amount drunk is already known, only the container type and drink matter.\n")
	}
	return sb.String()
}

// Analyzer 两轮提示词的图片分析、文本分析与条码识别
type Analyzer struct {
	model       llms.Model
	prompts     *Prompts
	textModel   string
	visionModel string
	timeout     time.Duration
	logs        mongo.AnalysisLogRepo
}

// NewAnalyzer logs 可为 nil
func NewAnalyzer(model llms.Model, cfg config.LLMConfig, logs mongo.AnalysisLogRepo) *Analyzer {
	return &Analyzer{
		model:       model,
		prompts:     LoadPrompts(cfg.PromptsPath),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		logs:        logs,
	}
}

// EstimateSize 第一轮：三个容量估计、尺寸与理由，按手掌大小修正透视偏差
func (a *Analyzer) EstimateSize(ctx context.Context, img ImageInput, hints Hints) (*SizeEstimate, error) {
	ex := exchange{flow: FlowImage, pass: PassSizeEstimate, model: a.visionModel, start: time.Now()}

	handSize := hints.HandSize
	if handSize == "" {
		handSize = "medium"
	}
	prompt := render(a.prompts.SizeEstimate, map[string]string{
		"hand_size": handSize,
		"context":   hints.text(),
	})

	raw, err := a.fetch(ctx, ImageSem, a.visionModel, []llms.ContentPart{
		llms.TextPart(prompt),
		llms.BinaryPart(img.MimeType, img.Data),
	})
	if err != nil {
		a.record(ctx, ex, raw, false, err)
		log.ErrorContext(ctx, "size estimate request failed", "err", err)
		return nil, Classify(err)
	}

	est := ParseSizeEstimate(raw)
	a.record(ctx, ex, raw, len(est.Estimates) > 0, nil)
	log.InfoContext(ctx, "size estimate parsed", "estimates", est.Estimates, "size", est.Size)
	return est, nil
}

// Decide 第二轮：强制给出 ESTIMATE 或 NO_WATER。无法解析时返回 parse 错误，由调用方决定是否回退
func (a *Analyzer) Decide(ctx context.Context, img ImageInput, est *SizeEstimate, hints Hints) (*Decision, error) {
	ex := exchange{flow: FlowImage, pass: PassDecision, model: a.visionModel, start: time.Now()}

	summary := "No earlier size estimate is available."
	if est != nil && est.Raw != "" {
		summary = est.Raw
	}
	prompt := render(a.prompts.Decision, map[string]string{
		"estimate": summary,
		"context":  hints.text(),
	})

	raw, err := a.fetch(ctx, ImageSem, a.visionModel, []llms.ContentPart{
		llms.TextPart(prompt),
		llms.BinaryPart(img.MimeType, img.Data),
	})
	if err != nil {
		a.record(ctx, ex, raw, false, err)
		log.ErrorContext(ctx, "decision request failed", "err", err)
		return nil, Classify(err)
	}

	decision, ok := ParseDecision(raw)
	a.record(ctx, ex, raw, ok, nil)
	if !ok {
		log.WarnContext(ctx, "unparseable decision", "response", raw)
		return nil, NewAnalysisError(KindParse, "could not understand the analysis result", nil)
	}
	return decision, nil
}

// AnalyzeText 根据文字描述估算饮用量，分类固定为 description
func (a *Analyzer) AnalyzeText(ctx context.Context, description string) (*Decision, error) {
	ex := exchange{flow: FlowText, pass: PassSingle, model: a.textModel, start: time.Now()}

	prompt := render(a.prompts.Text, map[string]string{"description": description})
	raw, err := a.fetch(ctx, TextSem, a.textModel, []llms.ContentPart{llms.TextPart(prompt)})
	if err != nil {
		a.record(ctx, ex, raw, false, err)
		log.ErrorContext(ctx, "text analysis request failed", "err", err)
		return nil, Classify(err)
	}

	decision, ok := ParseDecision(raw)
	a.record(ctx, ex, raw, ok, nil)
	if !ok {
		log.WarnContext(ctx, "unparseable text analysis", "response", raw)
		return nil, NewAnalysisError(KindParse, "could not understand that description, try rephrasing it", nil)
	}
	if !decision.NoWater {
		decision.Classification = "description"
	}
	return decision, nil
}

// LookupBarcode 询问单个容器的容量，hint 为外部商品库返回的描述，可为空
func (a *Analyzer) LookupBarcode(ctx context.Context, barcode, hint string) (*BarcodeProduct, error) {
	ex := exchange{flow: FlowBarcode, pass: PassSingle, model: a.textModel, start: time.Now()}

	if hint != "" {
		hint = "Product database entry: " + hint
	}
	prompt := render(a.prompts.Barcode, map[string]string{
		"barcode": barcode,
		"hint":    hint,
	})
	raw, err := a.fetch(ctx, TextSem, a.textModel, []llms.ContentPart{llms.TextPart(prompt)})
	if err != nil {
		a.record(ctx, ex, raw, false, err)
		log.ErrorContext(ctx, "barcode lookup request failed", "barcode", barcode, "err", err)
		return nil, Classify(err)
	}

	product, ok := ParseBarcodeResponse(raw)
	a.record(ctx, ex, raw, ok, nil)
	if !ok {
		log.WarnContext(ctx, "unparseable barcode response", "barcode", barcode, "response", raw)
		return nil, NewAnalysisError(KindParse, "product not recognised", nil)
	}
	if product.LiquidType == "" {
		product.LiquidType = "water"
	}
	return product, nil
}
