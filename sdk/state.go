package sdk

import (
	"slices"
	"sync"
	"time"
)

// State 会话、设置、当日记录与配额冷却，登录时初始化、登出时重置
type State struct {
	mu sync.RWMutex

	token    string
	userID   uint64
	role     string
	settings *Settings

	todayDate    string
	todayTotal   float64
	todayEntries []*Entry

	cooldowns map[string]time.Time
}

func newState() *State {
	return &State{cooldowns: make(map[string]time.Time)}
}

func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *State) UserID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *State) Settings() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil
	}
	cp := *s.settings
	return &cp
}

func (s *State) TodayTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.todayTotal
}

// TodayEntries 返回副本
func (s *State) TodayEntries() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.todayEntries)
}

// Cooldown 返回配额恢复时间，未处于冷却时 ok 为 false
func (s *State) Cooldown(limitType string, now time.Time) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.cooldowns[limitType]
	if !ok || !now.Before(until) {
		return time.Time{}, false
	}
	return until, true
}

func (s *State) setSession(token string, userID uint64, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.role = role
}

func (s *State) setSettings(settings *Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *State) setToday(today *Today) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todayDate = today.Date
	s.todayTotal = today.TotalOunces
	s.todayEntries = slices.Clone(today.Entries)
}

func (s *State) setCooldown(limitType string, until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[limitType] = until
}

// applyDelta 乐观更新当日总量，失败时以相反数回滚
func (s *State) applyDelta(ounces float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todayTotal += ounces
	if s.todayTotal < 0 {
		s.todayTotal = 0
	}
}

// confirmEntry 用服务端返回值替换乐观值
func (s *State) confirmEntry(entry *Entry, tentative float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.todayDate != "" && entry.EntryDate != s.todayDate {
		s.todayTotal -= tentative
		return
	}
	s.todayTotal += entry.Ounces - tentative
	s.todayEntries = append(s.todayEntries, entry)
}

// removeEntry 返回被移除的记录，用于回滚
func (s *State) removeEntry(id uint64) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.todayEntries, func(e *Entry) bool { return e.ID == id })
	if idx < 0 {
		return nil
	}
	entry := s.todayEntries[idx]
	s.todayEntries = slices.Delete(s.todayEntries, idx, idx+1)
	s.todayTotal -= entry.Ounces
	if s.todayTotal < 0 {
		s.todayTotal = 0
	}
	return entry
}

func (s *State) restoreEntry(entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todayEntries = append(s.todayEntries, entry)
	s.todayTotal += entry.Ounces
}

func (s *State) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = 0
	s.role = ""
	s.settings = nil
	s.todayDate = ""
	s.todayTotal = 0
	s.todayEntries = nil
	clear(s.cooldowns)
}
