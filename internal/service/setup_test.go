package service

import (
	"Hydro/internal/model"
	"Hydro/internal/pkg/database"
	"Hydro/internal/pkg/llm"
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// seedUser 创建用户与设置，返回用户 ID
func seedUser(t *testing.T, db *gorm.DB, tz string) uint64 {
	t.Helper()
	user := &model.User{Username: "u-" + strings.ReplaceAll(t.Name(), "/", "-"), Password: "x", Role: "USER"}
	require.NoError(t, db.Create(user).Error)
	settings := &model.UserSettings{
		UserID:    user.ID,
		DailyGoal: 64,
		HandSize:  model.HandMedium,
		SipSize:   1,
		WaterUnit: "oz",
		Timezone:  tz,
	}
	require.NoError(t, db.Create(settings).Error)
	return user.ID
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}

// testJPEG 生成一张小尺寸 JPEG 的 base64
func testJPEG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 144, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fakeAnalyzer struct {
	mu sync.Mutex

	estimate    *llm.SizeEstimate
	estimateErr error
	decision    *llm.Decision
	decisionErr error
	text        *llm.Decision
	textErr     error
	product     *llm.BarcodeProduct
	productErr  error

	estimateCalls int
	decideCalls   int
	textCalls     int
	barcodeCalls  int
	lastHint      string
	lastHints     llm.Hints
}

func (f *fakeAnalyzer) EstimateSize(_ context.Context, _ llm.ImageInput, hints llm.Hints) (*llm.SizeEstimate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimateCalls++
	f.lastHints = hints
	return f.estimate, f.estimateErr
}

func (f *fakeAnalyzer) Decide(_ context.Context, _ llm.ImageInput, _ *llm.SizeEstimate, hints llm.Hints) (*llm.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decideCalls++
	f.lastHints = hints
	return f.decision, f.decisionErr
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, _ string) (*llm.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls++
	return f.text, f.textErr
}

func (f *fakeAnalyzer) LookupBarcode(_ context.Context, _, hint string) (*llm.BarcodeProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.barcodeCalls++
	f.lastHint = hint
	return f.product, f.productErr
}

type fakeUploader struct {
	mu      sync.Mutex
	objects []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, objectName string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.objects = append(f.objects, objectName)
	return "http://minio.local/water-images/" + objectName, nil
}

type fakeDetector struct {
	code string
	err  error
}

func (f *fakeDetector) Detect(context.Context, []byte) (string, error) {
	return f.code, f.err
}

type fakeProducts struct {
	hint string
}

func (f *fakeProducts) Lookup(context.Context, string) (string, bool) {
	return f.hint, f.hint != ""
}

// memStore 内存版会话、锁与缓存
type memStore struct {
	mu       sync.Mutex
	values   map[string]string
	locks    map[string]string
	lockErr  error
	sessions map[string]uint64
}

func newMemStore() *memStore {
	return &memStore{
		values:   map[string]string{},
		locks:    map[string]string{},
		sessions: map[string]uint64{},
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

func (m *memStore) TryLock(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockErr != nil {
		return false, m.lockErr
	}
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = owner
	return true, nil
}

func (m *memStore) UnLock(_ context.Context, key, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] == owner {
		delete(m.locks, key)
	}
}

func (m *memStore) SaveSession(_ context.Context, signature string, userID uint64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[signature] = userID
	return nil
}

func (m *memStore) SessionUser(_ context.Context, signature string) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.sessions[signature]
	return uid, ok, nil
}

func (m *memStore) DeleteSession(_ context.Context, signature string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, signature)
	return nil
}
