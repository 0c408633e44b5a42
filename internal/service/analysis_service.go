package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/barcode"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/hydration"
	"Hydro/internal/pkg/llm"
	"Hydro/internal/pkg/metrics"
	"Hydro/internal/pkg/util"
	"Hydro/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

type AnalysisService interface {
	AnalyzeWater(ctx context.Context, userID uint64, req *dto.AnalyzeWaterDTO) (*dto.AnalysisResultDTO, error)
	AnalyzeBarcode(ctx context.Context, userID uint64, req *dto.AnalyzeBarcodeDTO) (*dto.AnalysisResultDTO, error)
	AnalyzeText(ctx context.Context, userID uint64, req *dto.AnalyzeTextDTO) (*dto.AnalysisResultDTO, error)
}

type analysisServiceImpl struct {
	settingsRepo repository.UserSettingsRepo
	barcodeRepo  repository.BarcodeRepo
	rateLimit    RateLimitService
	analyzer     Analyzer
	uploader     ImageUploader
	detector     BarcodeDetector
	products     ProductLookup
	now          func() time.Time
}

// NewAnalysisService detector 与 products 可为 nil
func NewAnalysisService(
	settingsRepo repository.UserSettingsRepo,
	barcodeRepo repository.BarcodeRepo,
	rateLimit RateLimitService,
	analyzer Analyzer,
	uploader ImageUploader,
	detector BarcodeDetector,
	products ProductLookup,
) AnalysisService {
	return &analysisServiceImpl{
		settingsRepo: settingsRepo,
		barcodeRepo:  barcodeRepo,
		rateLimit:    rateLimit,
		analyzer:     analyzer,
		uploader:     uploader,
		detector:     detector,
		products:     products,
		now:          time.Now,
	}
}

// AnalyzeWater 配额检查 → 压缩 → 上传 → 两轮分析 → 换算，结果不落库
func (s *analysisServiceImpl) AnalyzeWater(ctx context.Context, userID uint64, req *dto.AnalyzeWaterDTO) (*dto.AnalysisResultDTO, error) {
	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err = s.rateLimit.Enforce(ctx, userID, model.LimitImageUpload); err != nil {
		return nil, err
	}

	img, imageURL, err := s.prepareImage(ctx, userID, req.Image)
	if err != nil {
		return nil, s.fail(llm.FlowImage, err, true)
	}

	hints := llm.Hints{HandSize: settings.HandSize}
	if req.LiquidType != nil {
		hints.LiquidType = strings.TrimSpace(*req.LiquidType)
	}
	if req.Percentage != nil {
		hints.Percentage = *req.Percentage
	}
	if req.DurationSec != nil {
		hints.DurationSec = *req.DurationSec
	}

	var est *llm.SizeEstimate
	// 按时长计算时不需要容量估计
	if hints.DurationSec <= 0 {
		est, err = s.analyzer.EstimateSize(ctx, img, hints)
		if err != nil {
			return nil, s.fail(llm.FlowImage, pkgerrors.Wrap(err, "size estimate"), true)
		}
	}

	fallback := false
	decision, err := s.analyzer.Decide(ctx, img, est, hints)
	if err != nil {
		var ae *llm.AnalysisError
		if !errors.As(err, &ae) || ae.Kind != llm.KindParse {
			return nil, s.fail(llm.FlowImage, pkgerrors.Wrap(err, "decision"), true)
		}
		// 无法解析时回退到第一轮估计的中位数
		switch {
		case hints.DurationSec > 0:
			decision = &llm.Decision{Classification: model.ClassCupGlass, LiquidType: "water"}
		case est.Median() > 0:
			decision = &llm.Decision{Ounces: est.Median(), Classification: model.ClassCupGlass, LiquidType: "water"}
		default:
			return nil, s.fail(llm.FlowImage, err, true)
		}
		fallback = true
		log.WarnContext(ctx, "decision unparseable, using size estimate", "median", est.Median())
	}
	if decision.NoWater {
		return nil, s.fail(llm.FlowImage, llm.NewAnalysisError(llm.KindNoWater, noWaterMessage(decision.Reason), nil), true)
	}

	liquid := decision.LiquidType
	if hints.LiquidType != "" {
		liquid = hints.LiquidType
	}
	servings := servingsOf(req.Servings)

	var c *hydration.Consumption
	if hints.DurationSec > 0 {
		c, err = hydration.FromDuration(hints.DurationSec, settings.HandSize, servings, liquid)
	} else {
		c, err = hydration.FromContainer(decision.Ounces, hints.Percentage, servings, liquid)
	}
	if err != nil {
		return nil, s.fail(llm.FlowImage, consumptionError(err), true)
	}

	s.increment(ctx, userID, model.LimitImageUpload)
	metrics.AnalysisTotal.WithLabelValues(llm.FlowImage, "success").Inc()

	return &dto.AnalysisResultDTO{
		Success: true,
		Entry: &dto.AnalysisEntryDTO{
			Ounces:              c.Ounces,
			Classification:      decision.Classification,
			LiquidType:          liquid,
			Servings:            servings,
			ImageURL:            &imageURL,
			ContainerCapacity:   c.ContainerCapacity,
			HydrationMultiplier: c.Multiplier,
			Fallback:            fallback,
		},
	}, nil
}

// AnalyzeBarcode 缓存命中时不调用大模型
func (s *analysisServiceImpl) AnalyzeBarcode(ctx context.Context, userID uint64, req *dto.AnalyzeBarcodeDTO) (*dto.AnalysisResultDTO, error) {
	if (req.Barcode == nil || *req.Barcode == "") && (req.Image == nil || *req.Image == "") {
		return nil, ErrMissingBarcode
	}
	if _, err := s.loadSettings(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.rateLimit.Enforce(ctx, userID, model.LimitBarcodeScan); err != nil {
		return nil, err
	}

	var imageURL *string
	code := ""
	if req.Barcode != nil {
		code = barcode.Normalize(*req.Barcode)
	}
	if code == "" {
		img, url, err := s.prepareImage(ctx, userID, *req.Image)
		if err != nil {
			return nil, s.fail(llm.FlowBarcode, err, true)
		}
		imageURL = &url
		code, err = s.detectBarcode(ctx, img.Data)
		if err != nil {
			return nil, s.fail(llm.FlowBarcode, err, true)
		}
	}

	product, cached, err := s.lookupProduct(ctx, code)
	if err != nil {
		return nil, s.fail(llm.FlowBarcode, err, true)
	}

	servings := servingsOf(req.Servings)
	pct := 0.0
	if req.Percentage != nil {
		pct = *req.Percentage
	}
	c, err := hydration.FromContainer(product.Ounces, pct, servings, product.LiquidType)
	if err != nil {
		return nil, s.fail(llm.FlowBarcode, consumptionError(err), true)
	}

	s.increment(ctx, userID, model.LimitBarcodeScan)
	metrics.AnalysisTotal.WithLabelValues(llm.FlowBarcode, "success").Inc()

	return &dto.AnalysisResultDTO{
		Success: true,
		Entry: &dto.AnalysisEntryDTO{
			Ounces:              c.Ounces,
			Classification:      containerFor(product),
			LiquidType:          product.LiquidType,
			Servings:            servings,
			ImageURL:            imageURL,
			ContainerCapacity:   product.Ounces,
			HydrationMultiplier: c.Multiplier,
			Barcode:             code,
			ProductName:         product.ProductName,
			Cached:              &cached,
		},
	}, nil
}

// AnalyzeText 文字描述出错时不提供手动回退，提示用户重新描述
func (s *analysisServiceImpl) AnalyzeText(ctx context.Context, userID uint64, req *dto.AnalyzeTextDTO) (*dto.AnalysisResultDTO, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, ErrParamInvalid
	}
	if _, err := s.loadSettings(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.rateLimit.Enforce(ctx, userID, model.LimitTextAnalysis); err != nil {
		return nil, err
	}

	decision, err := s.analyzer.AnalyzeText(ctx, description)
	if err != nil {
		return nil, s.fail(llm.FlowText, err, false)
	}
	if decision.NoWater {
		return nil, s.fail(llm.FlowText, llm.NewAnalysisError(llm.KindNoWater, noWaterMessage(decision.Reason), nil), false)
	}

	c, err := hydration.FromContainer(decision.Ounces, 0, 1, decision.LiquidType)
	if err != nil {
		return nil, s.fail(llm.FlowText, consumptionError(err), false)
	}

	s.increment(ctx, userID, model.LimitTextAnalysis)
	metrics.AnalysisTotal.WithLabelValues(llm.FlowText, "success").Inc()

	return &dto.AnalysisResultDTO{
		Success: true,
		Entry: &dto.AnalysisEntryDTO{
			Ounces:              c.Ounces,
			Classification:      model.ClassDescription,
			LiquidType:          decision.LiquidType,
			Servings:            1,
			ContainerCapacity:   c.RawOunces,
			HydrationMultiplier: c.Multiplier,
			Description:         description,
		},
	}, nil
}

func (s *analysisServiceImpl) loadSettings(ctx context.Context, userID uint64) (*model.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("load user settings", err)
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}
	return settings, nil
}

// prepareImage 解码、压缩并上传，上传成功后才进入分析
func (s *analysisServiceImpl) prepareImage(ctx context.Context, userID uint64, encoded string) (llm.ImageInput, string, error) {
	raw, err := util.DecodeBase64Image(encoded)
	if err != nil {
		return llm.ImageInput{}, "", pkgerrors.Wrap(ErrInvalidImage, err.Error())
	}
	data, err := util.DownscaleJPEG(raw, util.MaxImageEdge)
	if err != nil {
		return llm.ImageInput{}, "", pkgerrors.Wrap(ErrInvalidImage, err.Error())
	}

	objectName := fmt.Sprintf("water/%d/%s/%s.jpg", userID, s.now().UTC().Format("2006/01/02"), uuid.NewString())
	url, err := s.uploader.Upload(ctx, objectName, data, consts.MimeJPEG)
	if err != nil {
		log.ErrorContext(ctx, "image upload failed", "object", objectName, "err", err)
		return llm.ImageInput{}, "", llm.NewAnalysisError(llm.KindGeneric, "Image upload failed: "+err.Error(), err)
	}
	return llm.ImageInput{Data: data, MimeType: consts.MimeJPEG}, url, nil
}

func (s *analysisServiceImpl) detectBarcode(ctx context.Context, image []byte) (string, error) {
	if s.detector == nil {
		return "", llm.NewAnalysisError(llm.KindGeneric, "barcode detection is unavailable", barcode.ErrNotConfigured)
	}
	code, err := s.detector.Detect(ctx, image)
	if err != nil {
		if errors.Is(err, barcode.ErrNotFound) || errors.Is(err, barcode.ErrNotConfigured) {
			return "", llm.NewAnalysisError(llm.KindGeneric, "no barcode found in image", err)
		}
		return "", llm.Classify(err)
	}
	return code, nil
}

// lookupProduct 先查缓存，未命中再询问大模型并写回缓存
func (s *analysisServiceImpl) lookupProduct(ctx context.Context, code string) (*llm.BarcodeProduct, bool, error) {
	item, err := s.barcodeRepo.Get(ctx, code)
	if err != nil {
		return nil, false, dbErr("load barcode cache", err)
	}
	if item != nil {
		metrics.BarcodeCacheLookups.WithLabelValues("hit").Inc()
		return &llm.BarcodeProduct{
			ProductName: item.ProductName,
			Ounces:      item.Ounces,
			LiquidType:  item.LiquidType,
		}, true, nil
	}
	metrics.BarcodeCacheLookups.WithLabelValues("miss").Inc()

	hint, source := "", consts.BarcodeSourceLLM
	if s.products != nil {
		if h, ok := s.products.Lookup(ctx, code); ok {
			hint, source = h, consts.BarcodeSourceOpenFoodFacts
		}
	}

	product, err := s.analyzer.LookupBarcode(ctx, code, hint)
	if err != nil {
		return nil, false, err
	}

	err = s.barcodeRepo.Save(ctx, &model.BarcodeCache{
		Barcode:     code,
		ProductName: product.ProductName,
		Ounces:      product.Ounces,
		LiquidType:  product.LiquidType,
		Source:      source,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		log.WarnContext(ctx, "save barcode cache failed", "barcode", code, "err", err)
	}
	return product, false, nil
}

// increment 失败不影响已完成的分析
func (s *analysisServiceImpl) increment(ctx context.Context, userID uint64, limitType string) {
	if err := s.rateLimit.IncrementDailyLimit(ctx, userID, limitType); err != nil {
		log.ErrorContext(ctx, "increment daily limit failed", "limit_type", limitType, "err", err)
	}
}

// fail 标注是否提供手动录入并计数
func (s *analysisServiceImpl) fail(flow string, err error, fallback bool) error {
	var ae *llm.AnalysisError
	if !errors.As(err, &ae) {
		metrics.AnalysisTotal.WithLabelValues(flow, "error").Inc()
		return err
	}
	ae.Fallback = fallback && ae.Kind != llm.KindAlcohol
	metrics.AnalysisTotal.WithLabelValues(flow, ae.Kind).Inc()
	return err
}

func consumptionError(err error) error {
	if errors.Is(err, hydration.ErrAlcohol) {
		return llm.NewAnalysisError(llm.KindAlcohol, "Alcoholic drinks are worth 0 oz of hydration", err)
	}
	return llm.NewAnalysisError(llm.KindGeneric, "Could not calculate how much you drank", err)
}

func noWaterMessage(reason string) string {
	if reason == "" {
		return "No drink detected"
	}
	return "No drink detected: " + reason
}

func servingsOf(p *int) int {
	if p == nil || *p < 1 {
		return 1
	}
	return *p
}

func containerFor(p *llm.BarcodeProduct) string {
	name := strings.ToLower(p.ProductName)
	if strings.Contains(name, " can") || strings.Contains(name, "cans") {
		return model.ClassDisposableCan
	}
	return model.ClassDisposableBottle
}
