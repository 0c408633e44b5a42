package service

import (
	"Hydro/internal/api/dto"
	"Hydro/internal/model"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/metrics"
	"Hydro/internal/pkg/util"
	"Hydro/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

const cleanupLockTTL = 10 * time.Minute

type CleanupService interface {
	CleanupOldEntries(ctx context.Context, userID uint64, force bool) (*dto.CleanupResultDTO, error)
	IsDue(settings *model.UserSettings) bool
	ListDueUsers(ctx context.Context, afterUserID uint64, limit int) ([]uint64, uint64, error)
}

type cleanupServiceImpl struct {
	settingsRepo  repository.UserSettingsRepo
	entryRepo     repository.WaterEntryRepo
	aggRepo       repository.AggregateRepo
	storageRepo   repository.StorageRepo
	locker        Locker
	cache         Cache
	retentionDays int
	now           func() time.Time
}

// NewCleanupService locker 与 cache 可为 nil
func NewCleanupService(
	settingsRepo repository.UserSettingsRepo,
	entryRepo repository.WaterEntryRepo,
	aggRepo repository.AggregateRepo,
	storageRepo repository.StorageRepo,
	locker Locker,
	cache Cache,
	retentionDays int,
) CleanupService {
	if retentionDays <= 0 {
		retentionDays = 40
	}
	return &cleanupServiceImpl{
		settingsRepo:  settingsRepo,
		entryRepo:     entryRepo,
		aggRepo:       aggRepo,
		storageRepo:   storageRepo,
		locker:        locker,
		cache:         cache,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// IsDue 用户本地日期今天尚未清理
func (s *cleanupServiceImpl) IsDue(settings *model.UserSettings) bool {
	today := util.LocalDate(s.now(), util.LoadLocation(settings.Timezone))
	return settings.LastCleanupDate != today
}

// ListDueUsers 按 user_id 分页扫描当天尚未清理的用户，返回下一页游标，游标为 0 表示扫描结束
func (s *cleanupServiceImpl) ListDueUsers(ctx context.Context, afterUserID uint64, limit int) ([]uint64, uint64, error) {
	page, err := s.settingsRepo.ListAfter(ctx, afterUserID, limit)
	if err != nil {
		return nil, 0, dbErr("list user settings", err)
	}
	due := make([]uint64, 0, len(page))
	for _, st := range page {
		if s.IsDue(st) {
			due = append(due, st.UserID)
		}
	}
	var next uint64
	if len(page) == limit && len(page) > 0 {
		next = page[len(page)-1].UserID
	}
	return due, next, nil
}

// CleanupOldEntries 截止日期以用户最后一条记录为准：先汇总提交，再删除原始记录
func (s *cleanupServiceImpl) CleanupOldEntries(ctx context.Context, userID uint64, force bool) (*dto.CleanupResultDTO, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, dbErr("load user settings", err)
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}

	now := s.now()
	loc := util.LoadLocation(settings.Timezone)
	today := util.LocalDate(now, loc)
	nextCleanup := util.NextMidnight(now, loc).Format(time.RFC3339)

	if !force && settings.LastCleanupDate == today {
		return &dto.CleanupResultDTO{
			Skipped:         true,
			Message:         "Cleanup already ran today",
			LastCleanupDate: settings.LastCleanupDate,
			NextCleanup:     nextCleanup,
		}, nil
	}

	if s.locker != nil {
		key := consts.CleanupLockPrefix + strconv.FormatUint(userID, 10)
		owner := uuid.NewString()
		ok, lockErr := s.locker.TryLock(ctx, key, owner, cleanupLockTTL)
		switch {
		case lockErr != nil:
			log.WarnContext(ctx, "cleanup lock unavailable, continuing without it", "err", lockErr)
		case !ok:
			return nil, ErrCleanupRunning
		default:
			defer s.locker.UnLock(context.WithoutCancel(ctx), key, owner)
		}
	}

	result, err := s.run(ctx, userID, today)
	if err != nil {
		log.ErrorContext(ctx, "cleanup failed", "user_id", userID, "err", err)
		return nil, err
	}
	result.NextCleanup = nextCleanup
	return result, nil
}

func (s *cleanupServiceImpl) run(ctx context.Context, userID uint64, today string) (*dto.CleanupResultDTO, error) {
	result := &dto.CleanupResultDTO{
		LastCleanupDate: today,
		DeletionDetails: &dto.DeletionDetailsDTO{
			ByType:   map[string]*dto.TypeStatDTO{},
			ByLiquid: map[string]*dto.TypeStatDTO{},
		},
	}

	maxDate, err := s.entryRepo.MaxEntryDate(ctx, userID)
	if err != nil {
		return nil, dbErr("find latest entry", pkgerrors.Wrap(err, "max entry date"))
	}
	if maxDate == "" {
		if err = s.stamp(ctx, userID, today); err != nil {
			return nil, err
		}
		result.Message = "No entries to clean up"
		return result, nil
	}

	// 早于校验写入的未来日期不能把截止日推过今天
	if maxDate > today {
		maxDate = today
	}
	cutoff, err := util.ShiftDate(maxDate, -s.retentionDays)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "compute cutoff from %s", maxDate)
	}

	// 1. 选出截止日期前的未删除记录
	entries, err := s.entryRepo.ListBefore(ctx, userID, cutoff)
	if err != nil {
		return nil, dbErr("select old entries", pkgerrors.Wrap(err, "list before cutoff"))
	}

	// 2. 按日汇总，3. 记录受影响的周
	daily := make(map[string]*model.DailyWaterAggregate)
	weeks := make(map[string]struct{})
	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)

		agg, ok := daily[e.EntryDate]
		if !ok {
			agg = &model.DailyWaterAggregate{UserID: userID, EntryDate: e.EntryDate}
			daily[e.EntryDate] = agg
		}
		agg.TotalOunces = util.RoundTo(agg.TotalOunces+e.Ounces, 2)
		agg.EntryCount++

		addStat(result.DeletionDetails.ByType, e.Classification, e.Ounces)
		addStat(result.DeletionDetails.ByLiquid, e.LiquidType, e.Ounces)

		week, werr := util.WeekStart(e.EntryDate)
		if werr != nil {
			return nil, pkgerrors.Wrapf(werr, "week of %s", e.EntryDate)
		}
		weeks[week] = struct{}{}
	}

	rows := make([]*model.DailyWaterAggregate, 0, len(daily))
	for _, agg := range daily {
		rows = append(rows, agg)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].EntryDate < rows[j].EntryDate })

	// 汇总必须先于删除提交
	if err = s.aggRepo.UpsertDaily(ctx, rows); err != nil {
		return nil, dbErr("upsert daily aggregates", pkgerrors.Wrap(err, "aggregate"))
	}
	result.DailyAggregatesCreated = len(rows)

	// 4. 物理删除
	deleted, err := s.entryRepo.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, dbErr("delete old entries", pkgerrors.Wrap(err, "delete"))
	}
	purged, err := s.entryRepo.DeleteSoftDeletedBefore(ctx, userID, cutoff)
	if err != nil {
		return nil, dbErr("purge soft-deleted entries", pkgerrors.Wrap(err, "purge"))
	}
	result.EntriesProcessed = int(deleted)

	// 5. 立即回收空间，失败不影响结果
	if deleted+purged > 0 {
		if cerr := s.storageRepo.Compact(ctx, "water_entries"); cerr != nil {
			log.WarnContext(ctx, "compaction failed", "table", "water_entries", "err", cerr)
		}
	}

	// 6. 以汇总表为准重算受影响的周
	weekList := make([]string, 0, len(weeks))
	for w := range weeks {
		weekList = append(weekList, w)
	}
	sort.Strings(weekList)
	for _, week := range weekList {
		if err = s.recountWeek(ctx, userID, week); err != nil {
			return nil, err
		}
	}
	result.WeeklySummariesUpdated = len(weekList)

	// 7. 记录清理日期
	if err = s.stamp(ctx, userID, today); err != nil {
		return nil, err
	}

	metrics.CleanupEntriesDeleted.Add(float64(deleted))
	if deleted > 0 {
		s.invalidateHistory(ctx, userID)
	}

	result.Message = fmt.Sprintf("Cleaned up %d entries older than %s", deleted, cutoff)
	log.InfoContext(ctx, "cleanup finished",
		"user_id", userID,
		"cutoff", cutoff,
		"deleted", deleted,
		"purged_soft_deleted", purged,
		"aggregates", len(rows),
		"weeks", len(weekList))
	return result, nil
}

func (s *cleanupServiceImpl) recountWeek(ctx context.Context, userID uint64, week string) error {
	end, err := util.ShiftDate(week, 6)
	if err != nil {
		return pkgerrors.Wrapf(err, "week end of %s", week)
	}
	days, err := s.aggRepo.ListDaily(ctx, userID, week, end)
	if err != nil {
		return dbErr("load weekly aggregates", pkgerrors.Wrapf(err, "week %s", week))
	}

	summary := &model.WeeklySummary{UserID: userID, WeekStartDate: week}
	for _, d := range days {
		if d.TotalOunces <= 0 {
			continue
		}
		summary.DaysWithData++
		summary.TotalOunces += d.TotalOunces
	}
	summary.TotalOunces = util.RoundTo(summary.TotalOunces, 2)
	if summary.DaysWithData > 0 {
		summary.AverageOunces = util.RoundTo(summary.TotalOunces/float64(summary.DaysWithData), 2)
	}

	if err = s.aggRepo.UpsertWeekly(ctx, summary); err != nil {
		return dbErr("upsert weekly summary", pkgerrors.Wrapf(err, "week %s", week))
	}
	return nil
}

func (s *cleanupServiceImpl) stamp(ctx context.Context, userID uint64, today string) error {
	if err := s.settingsRepo.SetLastCleanupDate(ctx, userID, today); err != nil {
		return dbErr("stamp last cleanup date", pkgerrors.Wrap(err, "stamp"))
	}
	return nil
}

func (s *cleanupServiceImpl) invalidateHistory(ctx context.Context, userID uint64) {
	invalidateHistory(ctx, s.cache, userID)
}

func addStat(stats map[string]*dto.TypeStatDTO, key string, ounces float64) {
	st, ok := stats[key]
	if !ok {
		st = &dto.TypeStatDTO{}
		stats[key] = st
	}
	st.Count++
	st.Ounces = util.RoundTo(st.Ounces+ounces, 2)
}
