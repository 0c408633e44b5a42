package sdk

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	keySettings  = "settings"
	keyToday     = "today"
	keyHistory   = "history"
	keyFavorites = "favorites"
)

// queryCache 读接口结果缓存，写操作后按前缀失效
type queryCache struct {
	items *cache.Cache
}

// newQueryCache ttl 不大于 0 时不缓存
func newQueryCache(ttl time.Duration) *queryCache {
	if ttl <= 0 {
		return &queryCache{}
	}
	return &queryCache{items: cache.New(ttl, 2*ttl)}
}

func (q *queryCache) get(key string) (any, bool) {
	if q.items == nil {
		return nil, false
	}
	return q.items.Get(key)
}

func (q *queryCache) set(key string, value any) {
	if q.items == nil {
		return
	}
	q.items.Set(key, value, cache.DefaultExpiration)
}

// invalidate 删除以任一前缀开头的键
func (q *queryCache) invalidate(prefixes ...string) {
	if q.items == nil {
		return
	}
	for key := range q.items.Items() {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				q.items.Delete(key)
				break
			}
		}
	}
}

func (q *queryCache) clear() {
	if q.items != nil {
		q.items.Flush()
	}
}

// cached 命中直接返回，否则调用 fetch 并写入缓存
func cached[T any](q *queryCache, key string, fetch func() (T, error)) (T, error) {
	if v, ok := q.get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	q.set(key, v)
	return v, nil
}
