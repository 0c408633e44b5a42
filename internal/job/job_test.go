package job

import (
	"Hydro/internal/api/config"
	"Hydro/internal/model"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/database"
	"Hydro/internal/repository"
	"Hydro/internal/service"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (*gorm.DB, service.CleanupService, service.JobService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cleanupSvc := service.NewCleanupService(
		repository.NewUserSettingsRepo(db),
		repository.NewWaterEntryRepo(db),
		repository.NewAggregateRepo(db),
		repository.NewStorageRepo(db),
		nil, nil, 40,
	)
	jobSvc := service.NewJobService(repository.NewJobRepo(db), repository.NewStorageRepo(db), config.QueueConfig{}, config.WorkerConfig{})
	service.RegisterJobHandlers(jobSvc, cleanupSvc)
	return db, cleanupSvc, jobSvc
}

func seedUsers(t *testing.T, db *gorm.DB, n int, cleanedToday ...int) {
	t.Helper()
	today := time.Now().UTC().Format(consts.DateLayout)
	cleaned := map[int]bool{}
	for _, i := range cleanedToday {
		cleaned[i] = true
	}
	for i := 0; i < n; i++ {
		u := &model.User{Username: fmt.Sprintf("user%d", i), Password: "x", Role: consts.RoleUser}
		require.NoError(t, db.Create(u).Error)
		s := &model.UserSettings{UserID: u.ID, Timezone: "UTC", HandSize: model.HandMedium}
		if cleaned[i] {
			s.LastCleanupDate = today
		}
		require.NoError(t, db.Create(s).Error)
	}
}

func TestRetentionJob_QueuesDueUsersOnce(t *testing.T) {
	db, cleanupSvc, jobSvc := setup(t)
	seedUsers(t, db, 5, 1)

	j := NewRetentionJob(cleanupSvc, jobSvc)
	queued, err := j.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, queued)

	queued, err = j.sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)

	// worker 执行后所有用户都已清理
	NewWorkerJob(jobSvc, 50).Run()

	var done int64
	require.NoError(t, db.Model(&model.Job{}).Where("status = ?", model.JobComplete).Count(&done).Error)
	assert.Equal(t, int64(4), done)

	due, next, err := cleanupSvc.ListDueUsers(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Zero(t, next)
}

func TestRetentionJob_Paginates(t *testing.T) {
	db, cleanupSvc, jobSvc := setup(t)
	seedUsers(t, db, retentionPageSize+3)

	queued, err := NewRetentionJob(cleanupSvc, jobSvc).sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, retentionPageSize+3, queued)
}

func TestJobCleanupJob_Run(t *testing.T) {
	db, _, jobSvc := setup(t)
	old := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, db.Create(&model.Job{Type: consts.JobTypeLoadTest, Status: model.JobComplete, Payload: "{}", CreatedAt: old, CompletedAt: &old}).Error)

	NewJobCleanupJob(jobSvc).Run()

	var count int64
	require.NoError(t, db.Model(&model.Job{}).Count(&count).Error)
	assert.Zero(t, count)
}
