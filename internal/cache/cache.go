// Package cache хранит списки занятых дней по месяцам с коротким TTL.
// Устаревание допустимо: при записи занятость всегда проверяется в базе.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DayCache кеш занятых дней, ключ = месяц
type DayCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, days []string) error
	Delete(ctx context.Context, keys ...string) error
}

// MonthKey ключ кеша для месяца
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("availability:%04d-%02d", year, int(month))
}

type memoryItem struct {
	days      []string
	expiresAt time.Time
}

// MemoryCache кеш в памяти процесса
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache создаёт кеш с заданным TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(item.expiresAt) {
		return nil, false, nil
	}

	out := make([]string, len(item.days))
	copy(out, item.days)
	return out, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, days []string) error {
	stored := make([]string, len(days))
	copy(stored, days)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = memoryItem{days: stored, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

// Sweep удаляет истёкшие записи, возвращает сколько удалено
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}
