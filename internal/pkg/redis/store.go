package redis

import (
	"Hydro/internal/pkg/consts"
	"context"
	"strconv"
	"time"
)

// Store 基于全局 Rdb 的会话、分布式锁与字符串缓存
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SaveSession(ctx context.Context, signature string, userID uint64, ttl time.Duration) error {
	return SetWithExpiration(ctx, consts.SessionKey+signature, strconv.FormatUint(userID, 10), ttl)
}

// SessionUser 返回会话对应的用户，会话不存在时 ok 为 false
func (s *Store) SessionUser(ctx context.Context, signature string) (uint64, bool, error) {
	value, err := GetValue(ctx, consts.SessionKey+signature)
	if err != nil {
		return 0, false, err
	}
	if value == "" {
		return 0, false, nil
	}
	uid, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return uid, true, nil
}

func (s *Store) DeleteSession(ctx context.Context, signature string) error {
	return DeleteKey(ctx, consts.SessionKey+signature)
}

func (s *Store) TryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return TryLock(ctx, key, owner, ttl, 1)
}

func (s *Store) UnLock(ctx context.Context, key, owner string) {
	UnLock(ctx, key, owner)
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return DeleteKey(ctx, keys...)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return GetValue(ctx, key)
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return SetWithExpiration(ctx, key, value, ttl)
}
