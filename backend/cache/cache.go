// ABOUTME: In-memory cache with TTL-based expiration for short-lived auth state
// ABOUTME: Holds login challenges and revoked token ids; Take makes entries single-use

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	data      any
	expiresAt time.Time
}

type Cache struct {
	store sync.Map
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

// New returns a cache whose entries live for ttl unless stored with SetWithTTL.
// Expired entries are swept once a minute until Close is called.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go c.startCleanup(time.Minute)
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return nil, false
	}

	e := val.(entry)
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("Cache expired", "key", key)
		return nil, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

// Take removes key and returns its value if it had not yet expired.
// Concurrent callers racing on the same key see at most one success.
func (c *Cache) Take(key string) (any, bool) {
	val, ok := c.store.LoadAndDelete(key)
	if !ok {
		return nil, false
	}
	e := val.(entry)
	if time.Now().After(e.expiresAt) {
		slog.Debug("Cache expired", "key", key)
		return nil, false
	}
	return e.data, true
}

func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Store(key, entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	})
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

func (c *Cache) Clear(key string) {
	c.store.Delete(key)
}

// Len counts entries that have not expired.
func (c *Cache) Len() int {
	now := time.Now()
	n := 0
	c.store.Range(func(_, val any) bool {
		if !now.After(val.(entry).expiresAt) {
			n++
		}
		return true
	})
	return n
}

// Close stops the background sweep.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

func (c *Cache) sweep(now time.Time) {
	c.store.Range(func(key, val any) bool {
		if now.After(val.(entry).expiresAt) {
			c.store.Delete(key)
		}
		return true
	})
}
