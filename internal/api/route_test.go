package api

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/dto"
	"Hydro/internal/api/handler"
	"Hydro/internal/api/middleware"
	"Hydro/internal/model"
	"Hydro/internal/pkg/consts"
	"Hydro/internal/pkg/database"
	"Hydro/internal/pkg/security"
	"Hydro/internal/repository"
	"Hydro/internal/service"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWorkerSecret = "worker-secret"

// memStore 会话、锁与缓存的内存实现
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (m *memStore) SaveSession(_ context.Context, signature string, userID uint64, _ time.Duration) error {
	return m.Set(context.Background(), consts.SessionKey+signature, jsonUint(userID), 0)
}

func (m *memStore) SessionUser(_ context.Context, signature string) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[consts.SessionKey+signature]
	if !ok {
		return 0, false, nil
	}
	var uid uint64
	if err := json.Unmarshal([]byte(v), &uid); err != nil {
		return 0, false, err
	}
	return uid, true, nil
}

func (m *memStore) DeleteSession(ctx context.Context, signature string) error {
	return m.Delete(ctx, consts.SessionKey+signature)
}

func (m *memStore) TryLock(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.values[key]; held {
		return false, nil
	}
	m.values[key] = owner
	return true, nil
}

func (m *memStore) UnLock(_ context.Context, key, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] == owner {
		delete(m.values, key)
	}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func jsonUint(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Default()
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.WorkerSecret = testWorkerSecret

	store := newMemStore()
	tokens, err := security.NewTokenManager(cfg.Security)
	require.NoError(t, err)

	settingsRepo := repository.NewUserSettingsRepo(db)
	entryRepo := repository.NewWaterEntryRepo(db)
	aggRepo := repository.NewAggregateRepo(db)
	favoriteRepo := repository.NewFavoriteRepo(db)
	storageRepo := repository.NewStorageRepo(db)

	userSvc := service.NewUserService(repository.NewUserRepo(db), tokens, store)
	rateLimitSvc := service.NewRateLimitService(settingsRepo, cfg.Limits)
	analysisSvc := service.NewAnalysisService(settingsRepo, repository.NewBarcodeRepo(db), rateLimitSvc, nil, nil, nil, nil)
	jobSvc := service.NewJobService(repository.NewJobRepo(db), storageRepo, cfg.Queue, cfg.Worker)
	cleanupSvc := service.NewCleanupService(settingsRepo, entryRepo, aggRepo, storageRepo, store, store, cfg.Retention.Days)
	waterSvc := service.NewWaterService(settingsRepo, entryRepo, aggRepo, favoriteRepo, cleanupSvc, jobSvc, store)
	service.RegisterJobHandlers(jobSvc, cleanupSvc)

	group := &HandlersGroup{
		UserHandler:     handler.NewUserHandler(userSvc, service.NewSettingsService(settingsRepo, store), cfg.Security),
		AnalysisHandler: handler.NewAnalysisHandler(analysisSvc, service.NewAnalysisLogService(nil)),
		WaterHandler:    handler.NewWaterHandler(waterSvc, cleanupSvc),
		FavoriteHandler: handler.NewFavoriteHandler(service.NewFavoriteService(favoriteRepo)),
		WorkerHandler:   handler.NewWorkerHandler(jobSvc, service.NewStorageService(storageRepo, nil)),
		UserService:     userSvc,
	}
	return &testApp{router: SetupRouter(group, cfg), db: db}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) signUp(t *testing.T, username string) *dto.TokenDTO {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/sign-up", "", map[string]string{
		"username": username,
		"password": "password123",
		"timezone": "America/New_York",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var token dto.TokenDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	return &token
}

func (a *testApp) signInAdmin(t *testing.T, username string) string {
	t.Helper()
	a.signUp(t, username)
	require.NoError(t, a.db.Model(&model.User{}).Where("username = ?", username).Update("role", consts.RoleAdmin).Error)
	w := a.do(t, http.MethodPost, "/api/auth/sign-in", "", map[string]string{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token dto.TokenDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	return token.Token
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/user/settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := app.signUp(t, "alice")

	w = app.do(t, http.MethodGet, "/api/user/settings", token.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings dto.SettingsDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, "America/New_York", settings.Timezone)

	w = app.do(t, http.MethodPost, "/api/auth/sign-up", "", map[string]string{"username": "alice", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/sign-in", "", map[string]string{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/sign-out", token.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=;")

	w = app.do(t, http.MethodGet, "/api/user/settings", token.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCookieSession(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "bob")

	req := httptest.NewRequest(http.MethodGet, "/api/user/settings", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token.Token})
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Authorization 头优先
	req = httptest.NewRequest(http.MethodGet, "/api/user/settings", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token.Token})
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWaterEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "carol").Token

	w := app.do(t, http.MethodPost, "/api/water-entries", token, map[string]any{"ounces": 12, "classification": model.ClassReusableBottle})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry dto.EntryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, 12.0, entry.Ounces)
	assert.Equal(t, "water", entry.LiquidType)

	w = app.do(t, http.MethodPost, "/api/water-entries", token, map[string]any{"ounces": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/water-today", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var today dto.WaterTodayResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Equal(t, 12.0, today.TotalOunces)
	assert.Len(t, today.Entries, 1)

	w = app.do(t, http.MethodGet, "/api/water-history?days=7", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history dto.WaterHistoryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, 12.0, history.TotalOunces)

	w = app.do(t, http.MethodGet, "/api/water-history?days=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodDelete, "/api/water-entries/"+jsonUint(entry.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodDelete, "/api/water-entries/"+jsonUint(entry.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPost, "/api/cleanup-old-entries", token, map[string]bool{"force": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "entriesProcessed")
}

func TestFavoriteEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "dave").Token

	w := app.do(t, http.MethodPost, "/api/favorites", token, map[string]any{
		"name":           "Morning bottle",
		"ounces":         16,
		"classification": model.ClassReusableBottle,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var fav model.Favorite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fav))

	w = app.do(t, http.MethodPost, "/api/water-entries", token, map[string]any{"favoriteId": fav.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry dto.EntryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, 16.0, entry.Ounces)
	assert.True(t, entry.CreatedFromFavorite)

	w = app.do(t, http.MethodGet, "/api/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Morning bottle")

	w = app.do(t, http.MethodDelete, "/api/favorites/0", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeValidation(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "erin").Token

	w := app.do(t, http.MethodPost, "/api/analyze-text", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/analyze-water", token, map[string]any{"image": "x", "percentage": 150})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkerAndAdminEndpoints(t *testing.T) {
	app := newTestApp(t)
	userToken := app.signUp(t, "frank").Token
	adminToken := app.signInAdmin(t, "root")

	w := app.do(t, http.MethodPost, "/api/worker/process-jobs", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(t, http.MethodPost, "/api/worker/process-jobs", "", nil, middleware.WorkerSecretHeader, "nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/worker/enqueue", userToken, map[string]any{"type": consts.JobTypeLoadTest})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/api/worker/enqueue", adminToken, map[string]any{
		"type":    consts.JobTypeLoadTest,
		"payload": map[string]any{"sleepMs": 1},
		"count":   3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var enqueued dto.EnqueueResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enqueued))
	assert.Equal(t, 3, enqueued.Enqueued)

	w = app.do(t, http.MethodPost, "/api/worker/enqueue", adminToken, map[string]any{"type": "unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/worker/process-jobs", "", map[string]int{"batchSize": 10}, middleware.WorkerSecretHeader, testWorkerSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var processed dto.ProcessResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &processed))
	assert.Equal(t, 3, processed.Claimed)
	assert.Equal(t, 3, processed.Completed)

	w = app.do(t, http.MethodPost, "/api/worker/cleanup-jobs", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/admin/job-stats?windowMinutes=5", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats dto.JobStatsDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats.WindowMinutes)
	assert.Equal(t, int64(3), stats.CompletedInWindow)

	w = app.do(t, http.MethodGet, "/api/admin/job-stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/api/admin/analysis-logs?userId=1", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodGet, "/api/admin/storage-breakdown", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), "water_entries"))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/api/ping", "", nil)

	w := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hydro_http_requests_total")
}
