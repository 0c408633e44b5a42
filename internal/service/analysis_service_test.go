package service

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/barcode"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/llm"
	"Hydro/internal/repository"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type analysisFixture struct {
	db       *gorm.DB
	uid      uint64
	svc      AnalysisService
	analyzer *fakeAnalyzer
	uploader *fakeUploader
	detector *fakeDetector
	products *fakeProducts
	settings repository.UserSettingsRepo
	barcodes repository.BarcodeRepo
}

func newAnalysisFixture(t *testing.T, limits config.LimitsConfig) *analysisFixture {
	t.Helper()
	db := newTestDB(t)
	f := &analysisFixture{
		db:       db,
		uid:      seedUser(t, db, "America/New_York"),
		analyzer: &fakeAnalyzer{},
		uploader: &fakeUploader{},
		detector: &fakeDetector{},
		products: &fakeProducts{},
		settings: repository.NewUserSettingsRepo(db),
		barcodes: repository.NewBarcodeRepo(db),
	}
	clock := fixedClock(mustTime(t, "2026-10-19T15:00:00Z"))
	rl := NewRateLimitService(f.settings, limits).(*rateLimitServiceImpl)
	rl.now = clock
	svc := NewAnalysisService(f.settings, f.barcodes, rl, f.analyzer, f.uploader, f.detector, f.products).(*analysisServiceImpl)
	svc.now = clock
	f.svc = svc
	return f
}

func defaultLimits() config.LimitsConfig {
	return config.LimitsConfig{ImageUpload: 25, BarcodeScan: 40, TextAnalysis: 50}
}

func (f *analysisFixture) usage(t *testing.T, limitType string) int {
	t.Helper()
	s, err := f.settings.GetByUserID(context.Background(), f.uid)
	require.NoError(t, err)
	n, _ := s.LimitUsage(limitType)
	return n
}

func ptr[T any](v T) *T {
	return &v
}

func TestAnalyzeWater_TwoPass(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.analyzer.estimate = &llm.SizeEstimate{Estimates: []float64{16, 20, 24}}
	f.analyzer.decision = &llm.Decision{Ounces: 20, Classification: model.ClassReusableBottle, LiquidType: "water"}

	res, err := f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{
		Image:      testJPEG(t),
		Percentage: ptr(50.0),
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 10.0, res.Entry.Ounces)
	assert.Equal(t, model.ClassReusableBottle, res.Entry.Classification)
	assert.Equal(t, 20.0, res.Entry.ContainerCapacity)
	assert.Equal(t, 1.0, res.Entry.HydrationMultiplier)
	assert.False(t, res.Entry.Fallback)
	require.NotNil(t, res.Entry.ImageURL)
	assert.Contains(t, *res.Entry.ImageURL, "water/")

	assert.Equal(t, 1, f.analyzer.estimateCalls)
	assert.Equal(t, 1, f.analyzer.decideCalls)
	assert.Equal(t, model.HandMedium, f.analyzer.lastHints.HandSize)
	assert.Len(t, f.uploader.objects, 1)
	assert.Equal(t, 1, f.usage(t, model.LimitImageUpload))
}

func TestAnalyzeWater_DurationSkipsSizePass(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.analyzer.decision = &llm.Decision{Classification: model.ClassFountain, LiquidType: "water"}

	res, err := f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{
		Image:       testJPEG(t),
		DurationSec: ptr(10.0),
		LiquidType:  ptr("coffee"),
	})
	require.NoError(t, err)
	// 10s × 0.65 oz/s × 0.8 = 5.2
	assert.Equal(t, 5.0, res.Entry.Ounces)
	assert.Equal(t, "coffee", res.Entry.LiquidType)
	assert.Equal(t, model.ClassFountain, res.Entry.Classification)
	assert.Equal(t, 0, f.analyzer.estimateCalls)
	assert.Equal(t, 1, f.analyzer.decideCalls)
}

func TestAnalyzeWater_UnparseableDecisionUsesMedian(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.analyzer.estimate = &llm.SizeEstimate{Estimates: []float64{12, 20, 16}}
	f.analyzer.decisionErr = llm.NewAnalysisError(llm.KindParse, "could not understand the analysis result", nil)

	res, err := f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	require.NoError(t, err)
	assert.True(t, res.Entry.Fallback)
	assert.Equal(t, 16.0, res.Entry.Ounces)
	assert.Equal(t, model.ClassCupGlass, res.Entry.Classification)
}

func TestAnalyzeWater_ParseErrorWithoutEstimates(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.analyzer.estimate = &llm.SizeEstimate{}
	f.analyzer.decisionErr = llm.NewAnalysisError(llm.KindParse, "could not understand the analysis result", nil)

	_, err := f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	var ae *llm.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, llm.KindParse, ae.Kind)
	assert.True(t, ae.Fallback)
	assert.Equal(t, 0, f.usage(t, model.LimitImageUpload))
}

func TestAnalyzeWater_NoWaterAndAlcohol(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.analyzer.estimate = &llm.SizeEstimate{Estimates: []float64{12}}
	f.analyzer.decision = &llm.Decision{NoWater: true, Reason: "a photo of a cat"}

	_, err := f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	var ae *llm.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, llm.KindNoWater, ae.Kind)
	assert.True(t, ae.Fallback)
	assert.Contains(t, ae.Message, "cat")

	f.analyzer.decision = &llm.Decision{Ounces: 12, Classification: model.ClassDisposableCan, LiquidType: "beer"}
	_, err = f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, llm.KindAlcohol, ae.Kind)
	assert.False(t, ae.Fallback)

	assert.Equal(t, 0, f.usage(t, model.LimitImageUpload))
}

func TestAnalyzeWater_LimitCheckedBeforeWork(t *testing.T) {
	f := newAnalysisFixture(t, config.LimitsConfig{ImageUpload: 1, BarcodeScan: 1, TextAnalysis: 1})
	f.analyzer.estimate = &llm.SizeEstimate{Estimates: []float64{8}}
	f.analyzer.decision = &llm.Decision{Ounces: 8, Classification: model.ClassCupGlass, LiquidType: "water"}
	ctx := context.Background()

	_, err := f.svc.AnalyzeWater(ctx, f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	require.NoError(t, err)

	_, err = f.svc.AnalyzeWater(ctx, f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 1, limitErr.Current)
	assert.Equal(t, 1, f.analyzer.estimateCalls)
	assert.Len(t, f.uploader.objects, 1)
}

func TestAnalyzeWater_UploadFailure(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.uploader.err = errors.New("connection refused")

	_, err := f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{Image: testJPEG(t)})
	var ae *llm.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, llm.KindGeneric, ae.Kind)
	assert.True(t, ae.Fallback)
	assert.Equal(t, 0, f.analyzer.estimateCalls)

	_, err = f.svc.AnalyzeWater(context.Background(), f.uid, &dto.AnalyzeWaterDTO{Image: "not-an-image"})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestAnalyzeBarcode_CacheReuse(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.products.hint = "Spring Water 24 x 16.9 fl oz"
	f.analyzer.product = &llm.BarcodeProduct{ProductName: "Spring Water", Ounces: 16.9, LiquidType: "water"}
	ctx := context.Background()

	first, err := f.svc.AnalyzeBarcode(ctx, f.uid, &dto.AnalyzeBarcodeDTO{Barcode: ptr("012345678905")})
	require.NoError(t, err)
	require.NotNil(t, first.Entry.Cached)
	assert.False(t, *first.Entry.Cached)
	assert.Equal(t, 17.0, first.Entry.Ounces)
	assert.Equal(t, model.ClassDisposableBottle, first.Entry.Classification)
	assert.Equal(t, "Spring Water 24 x 16.9 fl oz", f.analyzer.lastHint)

	cached, err := f.barcodes.Get(ctx, "012345678905")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, consts.BarcodeSourceOpenFoodFacts, cached.Source)

	second, err := f.svc.AnalyzeBarcode(ctx, f.uid, &dto.AnalyzeBarcodeDTO{Barcode: ptr("012345678905"), Percentage: ptr(50.0)})
	require.NoError(t, err)
	assert.True(t, *second.Entry.Cached)
	assert.Equal(t, 8.5, second.Entry.Ounces)
	assert.Equal(t, 1, f.analyzer.barcodeCalls)
	assert.Equal(t, 2, f.usage(t, model.LimitBarcodeScan))
}

func TestAnalyzeBarcode_FromImage(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.detector.code = "5449000000996"
	f.analyzer.product = &llm.BarcodeProduct{ProductName: "Cola can", Ounces: 12, LiquidType: "cola"}

	res, err := f.svc.AnalyzeBarcode(context.Background(), f.uid, &dto.AnalyzeBarcodeDTO{Image: ptr(testJPEG(t))})
	require.NoError(t, err)
	assert.Equal(t, "5449000000996", res.Entry.Barcode)
	assert.Equal(t, model.ClassDisposableCan, res.Entry.Classification)
	// 12 × 0.75 = 9
	assert.Equal(t, 9.0, res.Entry.Ounces)
	assert.NotNil(t, res.Entry.ImageURL)

	f.detector.err = barcode.ErrNotFound
	_, err = f.svc.AnalyzeBarcode(context.Background(), f.uid, &dto.AnalyzeBarcodeDTO{Image: ptr(testJPEG(t))})
	var ae *llm.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, llm.KindGeneric, ae.Kind)
	assert.True(t, ae.Fallback)

	_, err = f.svc.AnalyzeBarcode(context.Background(), f.uid, &dto.AnalyzeBarcodeDTO{})
	assert.ErrorIs(t, err, ErrMissingBarcode)
}

func TestAnalyzeText(t *testing.T) {
	f := newAnalysisFixture(t, defaultLimits())
	f.analyzer.text = &llm.Decision{Ounces: 12, Classification: model.ClassCupGlass, LiquidType: "tea"}

	res, err := f.svc.AnalyzeText(context.Background(), f.uid, &dto.AnalyzeTextDTO{Description: "a big mug of green tea"})
	require.NoError(t, err)
	assert.Equal(t, model.ClassDescription, res.Entry.Classification)
	// 12 × 0.8 = 9.6
	assert.Equal(t, 9.5, res.Entry.Ounces)
	assert.Equal(t, "a big mug of green tea", res.Entry.Description)
	assert.Equal(t, 1, f.usage(t, model.LimitTextAnalysis))

	f.analyzer.text = nil
	f.analyzer.textErr = llm.NewAnalysisError(llm.KindNetwork, "analysis request timed out", context.DeadlineExceeded)
	_, err = f.svc.AnalyzeText(context.Background(), f.uid, &dto.AnalyzeTextDTO{Description: "water"})
	var ae *llm.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, llm.KindNetwork, ae.Kind)
	assert.False(t, ae.Fallback)
}
