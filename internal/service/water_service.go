package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/util"
	"Hydro/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
	historyCacheTTL    = 10 * time.Minute
	// 客户端时钟允许的超前量
	maxClockSkew = 5 * time.Minute
)

// 只缓存客户端常用的几个窗口，写入时按这些 key 失效
var cachedHistoryWindows = []int{7, 30, 90, 365}

type WaterService interface {
	CreateEntry(ctx context.Context, userID uint64, req *dto.CreateEntryDTO) (*dto.EntryDTO, error)
	DeleteEntry(ctx context.Context, userID, entryID uint64) error
	Today(ctx context.Context, userID uint64, req *dto.WaterTodayDTO) (*dto.WaterTodayResultDTO, error)
	History(ctx context.Context, userID uint64, days int) (*dto.WaterHistoryDTO, error)
}

type waterServiceImpl struct {
	settingsRepo repository.UserSettingsRepo
	entryRepo    repository.WaterEntryRepo
	aggRepo      repository.AggregateRepo
	favoriteRepo repository.FavoriteRepo
	cleanup      CleanupService
	jobs         JobService
	cache        Cache
	now          func() time.Time
}

// NewWaterService jobs 与 cache 可为 nil
func NewWaterService(
	settingsRepo repository.UserSettingsRepo,
	entryRepo repository.WaterEntryRepo,
	aggRepo repository.AggregateRepo,
	favoriteRepo repository.FavoriteRepo,
	cleanup CleanupService,
	jobs JobService,
	cache Cache,
) WaterService {
	return &waterServiceImpl{
		settingsRepo: settingsRepo,
		entryRepo:    entryRepo,
		aggRepo:      aggRepo,
		favoriteRepo: favoriteRepo,
		cleanup:      cleanup,
		jobs:         jobs,
		cache:        cache,
		now:          time.Now,
	}
}

func (s *waterServiceImpl) loadSettings(ctx context.Context, userID uint64) (*model.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("load user settings", err)
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}
	return settings, nil
}

// CreateEntry 日期缺省时按用户时区计算，不使用 UTC 日期
func (s *waterServiceImpl) CreateEntry(ctx context.Context, userID uint64, req *dto.CreateEntryDTO) (*dto.EntryDTO, error) {
	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &model.WaterEntry{
		UserID:         userID,
		Ounces:         req.Ounces,
		Classification: req.Classification,
		LiquidType:     req.LiquidType,
		Servings:       req.Servings,
		ImageURL:       req.ImageURL,
		Description:    req.Description,
	}

	if req.FavoriteID != nil {
		fav, ferr := s.favoriteRepo.Get(ctx, userID, *req.FavoriteID)
		if ferr != nil {
			return nil, dbErr("load favorite", ferr)
		}
		if fav == nil {
			return nil, ErrFavoriteNotFound
		}
		entry.CreatedFromFavorite = true
		if entry.Ounces == 0 {
			entry.Ounces = fav.Ounces
		}
		if entry.Classification == "" {
			entry.Classification = fav.Classification
		}
		if entry.LiquidType == "" {
			entry.LiquidType = fav.LiquidType
		}
		if entry.Servings == 0 {
			entry.Servings = fav.Servings
		}
		if entry.ImageURL == nil {
			entry.ImageURL = fav.ImageURL
		}
	}

	if entry.Ounces <= 0 || !model.Classifications[entry.Classification] {
		return nil, ErrParamInvalid
	}
	if entry.LiquidType == "" {
		entry.LiquidType = "water"
	}
	if entry.Servings < 1 {
		entry.Servings = 1
	}
	entry.Ounces = util.RoundTo(entry.Ounces, 2)

	now := s.now().UTC()
	loc := util.LoadLocation(settings.Timezone)
	entry.Timestamp = now
	if req.Timestamp != nil {
		// 未来时间会把保留期截止日推后，导致历史被整体清除
		if req.Timestamp.After(now.Add(maxClockSkew)) {
			return nil, ErrParamInvalid
		}
		entry.Timestamp = req.Timestamp.UTC()
	}
	entry.EntryDate = req.EntryDate
	if entry.EntryDate == "" {
		entry.EntryDate = util.LocalDate(entry.Timestamp, loc)
	}
	// 日期为 YYYY-MM-DD，可直接按字符串比较
	if entry.EntryDate > util.LocalDate(now, loc) {
		return nil, ErrParamInvalid
	}
	entry.CreatedAt = now

	if err = s.entryRepo.Create(ctx, entry); err != nil {
		return nil, dbErr("create water entry", err)
	}
	invalidateHistory(ctx, s.cache, userID)

	var out dto.EntryDTO
	if err = copier.Copy(&out, entry); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *waterServiceImpl) DeleteEntry(ctx context.Context, userID, entryID uint64) error {
	affected, err := s.entryRepo.SoftDelete(ctx, userID, entryID)
	if err != nil {
		return dbErr("delete water entry", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	invalidateHistory(ctx, s.cache, userID)
	return nil
}

// Today 返回当天记录，并在当天尚未清理时排入一次保留期清理
func (s *waterServiceImpl) Today(ctx context.Context, userID uint64, req *dto.WaterTodayDTO) (*dto.WaterTodayResultDTO, error) {
	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := util.LocalDate(s.now(), util.LoadLocation(settings.Timezone))
	date := today
	if req != nil && req.Date != "" {
		date = req.Date
	}

	entries, err := s.entryRepo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, dbErr("list today entries", err)
	}

	result := &dto.WaterTodayResultDTO{
		Date:      date,
		DailyGoal: settings.DailyGoal,
		Entries:   make([]*dto.EntryDTO, 0, len(entries)),
	}
	if err = copier.Copy(&result.Entries, &entries); err != nil {
		return nil, err
	}
	if result.Entries == nil {
		result.Entries = make([]*dto.EntryDTO, 0)
	}
	for _, e := range entries {
		result.TotalOunces += e.Ounces
	}
	result.TotalOunces = util.RoundTo(result.TotalOunces, 2)
	if settings.DailyGoal > 0 {
		result.Progress = util.RoundTo(result.TotalOunces/settings.DailyGoal*100, 1)
	}

	if date == today && s.jobs != nil && s.cleanup.IsDue(settings) {
		queued, qerr := s.jobs.EnqueueUnique(ctx, consts.JobTypeRetentionCleanup, RetentionPayload{UserID: userID})
		if qerr != nil {
			log.WarnContext(ctx, "enqueue retention cleanup failed", "err", qerr)
		} else if queued {
			log.InfoContext(ctx, "retention cleanup queued")
		}
	}
	return result, nil
}

// History 合并原始记录与清理后的日汇总，同一天两边都有时相加
func (s *waterServiceImpl) History(ctx context.Context, userID uint64, days int) (*dto.WaterHistoryDTO, error) {
	if days == 0 {
		days = defaultHistoryDays
	}
	days = util.Clamp(days, 1, maxHistoryDays)

	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	to := util.LocalDate(s.now(), util.LoadLocation(settings.Timezone))
	from, err := util.ShiftDate(to, -(days - 1))
	if err != nil {
		return nil, err
	}

	key := historyCacheKey(userID, days)
	if cached := s.cachedHistory(ctx, key); cached != nil && cached.To == to {
		return cached, nil
	}

	live, err := s.entryRepo.DailyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, dbErr("load daily totals", err)
	}
	aggs, err := s.aggRepo.ListDaily(ctx, userID, from, to)
	if err != nil {
		return nil, dbErr("load daily aggregates", err)
	}

	byDate := make(map[string]*dto.HistoryDayDTO)
	for _, a := range aggs {
		byDate[a.EntryDate] = &dto.HistoryDayDTO{
			Date:        a.EntryDate,
			TotalOunces: a.TotalOunces,
			EntryCount:  a.EntryCount,
			Source:      "aggregate",
		}
	}
	for _, t := range live {
		day, ok := byDate[t.EntryDate]
		if !ok {
			byDate[t.EntryDate] = &dto.HistoryDayDTO{
				Date:        t.EntryDate,
				TotalOunces: t.TotalOunces,
				EntryCount:  t.EntryCount,
				Source:      "entries",
			}
			continue
		}
		day.TotalOunces += t.TotalOunces
		day.EntryCount += t.EntryCount
		day.Source = "both"
	}

	history := &dto.WaterHistoryDTO{
		From:            from,
		To:              to,
		Days:            make([]*dto.HistoryDayDTO, 0, len(byDate)),
		WeeklySummaries: make([]*dto.WeeklySummaryDTO, 0),
	}
	for _, day := range byDate {
		day.TotalOunces = util.RoundTo(day.TotalOunces, 2)
		day.GoalMet = settings.DailyGoal > 0 && day.TotalOunces >= settings.DailyGoal
		history.Days = append(history.Days, day)
		history.TotalOunces += day.TotalOunces
		if day.TotalOunces > 0 {
			history.DaysWithData++
		}
		if day.GoalMet {
			history.GoalMetDays++
		}
	}
	sort.Slice(history.Days, func(i, j int) bool { return history.Days[i].Date < history.Days[j].Date })
	history.TotalOunces = util.RoundTo(history.TotalOunces, 2)
	if history.DaysWithData > 0 {
		history.AverageOunces = util.RoundTo(history.TotalOunces/float64(history.DaysWithData), 2)
	}

	weekFrom, err := util.WeekStart(from)
	if err != nil {
		return nil, err
	}
	weeks, err := s.aggRepo.ListWeekly(ctx, userID, weekFrom, to)
	if err != nil {
		return nil, dbErr("load weekly summaries", err)
	}
	if err = copier.Copy(&history.WeeklySummaries, &weeks); err != nil {
		return nil, err
	}
	if history.WeeklySummaries == nil {
		history.WeeklySummaries = make([]*dto.WeeklySummaryDTO, 0)
	}

	s.storeHistory(ctx, key, history)
	return history, nil
}

func (s *waterServiceImpl) cachedHistory(ctx context.Context, key string) *dto.WaterHistoryDTO {
	if s.cache == nil || key == "" {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	var history dto.WaterHistoryDTO
	if err = json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return &history
}

func (s *waterServiceImpl) storeHistory(ctx context.Context, key string, history *dto.WaterHistoryDTO) {
	if s.cache == nil || key == "" {
		return
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return
	}
	if err = s.cache.Set(ctx, key, string(raw), historyCacheTTL); err != nil {
		log.WarnContext(ctx, "cache water history failed", "key", key, "err", err)
	}
}

// historyCacheKey 非常用窗口返回空串，不缓存
func historyCacheKey(userID uint64, days int) string {
	for _, w := range cachedHistoryWindows {
		if w == days {
			return fmt.Sprintf("%s%d:%d", consts.WaterHistoryKey, userID, days)
		}
	}
	return ""
}

func invalidateHistory(ctx context.Context, cache Cache, userID uint64) {
	if cache == nil {
		return
	}
	keys := make([]string, 0, len(cachedHistoryWindows))
	for _, w := range cachedHistoryWindows {
		keys = append(keys, historyCacheKey(userID, w))
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		log.WarnContext(ctx, "invalidate water history cache failed", "err", err)
	}
}
