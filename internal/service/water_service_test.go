package service

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type waterFixture struct {
	*cleanupFixture
	jobs  *jobServiceImpl
	water *waterServiceImpl
}

func newWaterFixture(t *testing.T) *waterFixture {
	t.Helper()
	cf := newCleanupFixture(t)
	jobs := NewJobService(repository.NewJobRepo(cf.db), repository.NewStorageRepo(cf.db), config.QueueConfig{}, config.WorkerConfig{}).(*jobServiceImpl)
	RegisterJobHandlers(jobs, cf.svc)
	water := NewWaterService(
		repository.NewUserSettingsRepo(cf.db),
		repository.NewWaterEntryRepo(cf.db),
		repository.NewAggregateRepo(cf.db),
		repository.NewFavoriteRepo(cf.db),
		cf.svc,
		jobs,
		cf.store,
	).(*waterServiceImpl)
	water.now = cf.svc.now
	return &waterFixture{cleanupFixture: cf, jobs: jobs, water: water}
}

func TestWater_CreateEntryUsesLocalDate(t *testing.T) {
	f := newWaterFixture(t)
	ctx := context.Background()

	// 2026-10-19 03:00 UTC 在纽约是 10-18 晚上
	late := mustTime(t, "2026-10-19T03:00:00Z")
	entry, err := f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{
		Ounces:         12,
		Classification: model.ClassCupGlass,
		Timestamp:      &late,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", entry.EntryDate)
	assert.Equal(t, "water", entry.LiquidType)
	assert.Equal(t, 1, entry.Servings)

	_, err = f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{Ounces: 12})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestWater_CreateFromFavorite(t *testing.T) {
	f := newWaterFixture(t)
	ctx := context.Background()

	fav, err := NewFavoriteService(repository.NewFavoriteRepo(f.db)).Create(ctx, f.uid, &dto.CreateFavoriteDTO{
		Name:           "Morning bottle",
		Ounces:         24,
		Classification: model.ClassReusableBottle,
		LiquidType:     "water",
	})
	require.NoError(t, err)

	entry, err := f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{FavoriteID: &fav.ID})
	require.NoError(t, err)
	assert.True(t, entry.CreatedFromFavorite)
	assert.Equal(t, 24.0, entry.Ounces)
	assert.Equal(t, model.ClassReusableBottle, entry.Classification)

	missing := uint64(999)
	_, err = f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{FavoriteID: &missing})
	assert.ErrorIs(t, err, ErrFavoriteNotFound)
}

func TestWater_TodayAndOpportunisticCleanup(t *testing.T) {
	f := newWaterFixture(t)
	f.seedHistory(t)
	ctx := context.Background()

	_, err := f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{Ounces: 16, Classification: model.ClassTap})
	require.NoError(t, err)
	_, err = f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{Ounces: 16, Classification: model.ClassTap})
	require.NoError(t, err)

	today, err := f.water.Today(ctx, f.uid, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", today.Date)
	assert.Equal(t, 32.0, today.TotalOunces)
	assert.Equal(t, 50.0, today.Progress)
	assert.Len(t, today.Entries, 2)

	// 重复请求不会重复排队
	_, err = f.water.Today(ctx, f.uid, nil)
	require.NoError(t, err)
	var queued []model.Job
	require.NoError(t, f.db.Where("type = ?", consts.JobTypeRetentionCleanup).Find(&queued).Error)
	require.Len(t, queued, 1)

	res, err := f.jobs.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)

	// 已清理后不再排队
	_, err = f.water.Today(ctx, f.uid, &dto.WaterTodayDTO{})
	require.NoError(t, err)
	var pending int64
	require.NoError(t, f.db.Model(&model.Job{}).Where("status = ?", model.JobPending).Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestWater_DeleteEntry(t *testing.T) {
	f := newWaterFixture(t)
	ctx := context.Background()

	entry, err := f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{Ounces: 8, Classification: model.ClassManual})
	require.NoError(t, err)

	require.NoError(t, f.water.DeleteEntry(ctx, f.uid, entry.ID))
	assert.ErrorIs(t, f.water.DeleteEntry(ctx, f.uid, entry.ID), ErrEntryNotFound)
	assert.ErrorIs(t, f.water.DeleteEntry(ctx, f.uid+1, entry.ID), ErrEntryNotFound)

	today, err := f.water.Today(ctx, f.uid, nil)
	require.NoError(t, err)
	assert.Zero(t, today.TotalOunces)
	assert.Empty(t, today.Entries)
}

func TestWater_HistoryMergesAggregates(t *testing.T) {
	f := newWaterFixture(t)
	f.seedHistory(t)
	ctx := context.Background()

	_, err := f.svc.CleanupOldEntries(ctx, f.uid, false)
	require.NoError(t, err)

	// 同一天既有汇总又有补录的原始记录
	require.NoError(t, f.db.Create(&model.WaterEntry{
		UserID:         f.uid,
		Ounces:         4,
		EntryDate:      "2026-09-03",
		Timestamp:      time.Date(2026, 9, 3, 20, 0, 0, 0, time.UTC),
		Classification: model.ClassManual,
		LiquidType:     "water",
		Servings:       1,
	}).Error)

	history, err := f.water.History(ctx, f.uid, 60)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-21", history.From)
	assert.Equal(t, "2026-10-19", history.To)
	require.Len(t, history.Days, 3)

	assert.Equal(t, "2026-09-03", history.Days[0].Date)
	assert.Equal(t, 24.0, history.Days[0].TotalOunces)
	assert.Equal(t, "both", history.Days[0].Source)
	assert.Equal(t, 3, history.Days[0].EntryCount)
	assert.Equal(t, "entries", history.Days[1].Source)
	assert.Equal(t, 42.0, history.TotalOunces)
	assert.Equal(t, 3, history.DaysWithData)
	assert.Equal(t, 0, history.GoalMetDays)

	require.Len(t, history.WeeklySummaries, 1)
	assert.Equal(t, "2026-08-31", history.WeeklySummaries[0].WeekStartDate)

	// 超出范围的天数被截断
	capped, err := f.water.History(ctx, f.uid, 5000)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-20", capped.From)
}

func TestWater_HistoryCache(t *testing.T) {
	f := newWaterFixture(t)
	ctx := context.Background()

	_, err := f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{Ounces: 10, Classification: model.ClassTap})
	require.NoError(t, err)

	first, err := f.water.History(ctx, f.uid, 30)
	require.NoError(t, err)
	assert.Equal(t, 10.0, first.TotalOunces)
	assert.NotEmpty(t, f.store.values["water:history:1:30"])

	// 写入后缓存失效
	_, err = f.water.CreateEntry(ctx, f.uid, &dto.CreateEntryDTO{Ounces: 5, Classification: model.ClassTap})
	require.NoError(t, err)
	assert.Empty(t, f.store.values["water:history:1:30"])

	second, err := f.water.History(ctx, f.uid, 30)
	require.NoError(t, err)
	assert.Equal(t, 15.0, second.TotalOunces)
}
