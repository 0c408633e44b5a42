package repository

import (
	"Hydro/internal/model"
	"context"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCreateUserDuplicateUsername(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.UserSettings{}))
	repo := NewUserRepo(db)
	ctx := context.Background()

	first := &model.User{Username: "alice", Password: "x", Role: "USER"}
	require.NoError(t, repo.CreateUser(ctx, first, &model.UserSettings{Timezone: "UTC"}))

	second := &model.User{Username: "alice", Password: "y", Role: "USER"}
	err = repo.CreateUser(ctx, second, &model.UserSettings{Timezone: "UTC"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	var count int64
	require.NoError(t, db.Model(&model.UserSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, isDuplicateError(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicateError(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.False(t, isDuplicateError(gorm.ErrRecordNotFound))
}
