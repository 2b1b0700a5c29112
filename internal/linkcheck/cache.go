package linkcheck

import (
	"context"
	"sync"
	"time"
)

// CacheEntry is a cached link verification result.
type CacheEntry struct {
	URL             string    `json:"url"`
	Status          int       `json:"status"`
	IsValid         bool      `json:"is_valid"`
	Error           string    `json:"error,omitempty"`
	LastChecked     time.Time `json:"last_checked"`
	FailureCount    int       `json:"failure_count"`
	FirstFailedAt   time.Time `json:"first_failed_at,omitempty"`
	ConsecutiveFail bool      `json:"consecutive_fail"`
}

// cacheClient abstracts the verification cache and the broken-link event
// sink. The NATS implementation is used when a server is configured; the
// in-memory one keeps single-run deduplication working without infrastructure.
type cacheClient interface {
	GetCachedResult(ctx context.Context, url string) (*CacheEntry, error)
	SetCachedResult(ctx context.Context, entry *CacheEntry) error
	IsCacheValid(entry *CacheEntry) bool
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// memoryCache is the in-process fallback cache. Results live only for the
// duration of the run, which still deduplicates URLs repeated across pages.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]*CacheEntry
	ttlOK       time.Duration
	ttlFailures time.Duration
	events      []*BrokenLinkEvent
}

func newMemoryCache(ttlOK, ttlFailures time.Duration) *memoryCache {
	return &memoryCache{
		entries:     map[string]*CacheEntry{},
		ttlOK:       ttlOK,
		ttlFailures: ttlFailures,
	}
}

func (m *memoryCache) GetCachedResult(_ context.Context, url string) (*CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[url], nil
}

func (m *memoryCache) SetCachedResult(_ context.Context, entry *CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.LastChecked = time.Now()
	m.entries[entry.URL] = entry
	return nil
}

func (m *memoryCache) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := m.ttlOK
	if !entry.IsValid {
		ttl = m.ttlFailures
	}
	return time.Since(entry.LastChecked) < ttl
}

func (m *memoryCache) PublishBrokenLink(_ context.Context, event *BrokenLinkEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.Timestamp = time.Now()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryCache) Close() error { return nil }
