package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type LimiterConfig struct {
	Capacity int
	RatePS   float64 // tokens/秒
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Capacity: 20,
		RatePS:   5,
	}
}

func (c LimiterConfig) normalize() LimiterConfig {
	d := GetDefaultLimiterConfig()
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = d.RatePS
	}
	return c
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucket 單機版，每個 key 一個 bucket
// 不跑背景 goroutine，每次 Allow 依經過時間補 token
type TokenBucket struct {
	LimiterConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	maxKeys int
}

func NewTokenBucket(config *LimiterConfig) *TokenBucket {
	t := &TokenBucket{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		maxKeys: 10000,
	}
	if config != nil {
		t.LimiterConfig = config.normalize()
	} else {
		t.LimiterConfig = GetDefaultLimiterConfig()
	}
	return t
}

func (t *TokenBucket) Allow(ctx context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		if len(t.buckets) >= t.maxKeys {
			t.evictFull(now)
		}
		b = &bucket{tokens: float64(t.Capacity), lastRefill: now}
		t.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(float64(t.Capacity), b.tokens+elapsed*t.RatePS)
		b.lastRefill = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictFull 移除已補滿的 bucket，重建時狀態相同
func (t *TokenBucket) evictFull(now time.Time) {
	for k, b := range t.buckets {
		if b.tokens+now.Sub(b.lastRefill).Seconds()*t.RatePS >= float64(t.Capacity) {
			delete(t.buckets, k)
		}
	}
}
