package csvsource

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
)

// CachedSource wraps a Source with an in-memory LRU cache keyed by file id.
// Source files are historical and never change once published.
//
// Concurrent misses for the same file share one fetch. The shared fetch is
// detached from any single caller's cancellation and bounded by the inner
// source's own timeout, so a caller that gives up never fails the others
// waiting on the same file.
type CachedSource struct {
	inner   domain.Source
	cache   *lruCache
	flight  singleflight.Group
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner domain.Source, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context, day domain.DayDescriptor) (string, error) {
	if text, ok := c.cache.get(day.FileID); ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return text, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(day.FileID, func() (any, error) {
		text, err := c.inner.Fetch(shared, day)
		if err != nil {
			return "", err
		}
		c.cache.put(day.FileID, text)
		return text, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// lruCache is a thread-safe LRU of file contents. The front of order is the
// most recently used file.
type lruCache struct {
	mu    sync.Mutex
	limit int
	order *list.List
	byKey map[string]*list.Element
}

type cached struct {
	fileID string
	text   string
}

func newLRUCache(limit int) *lruCache {
	return &lruCache{
		limit: limit,
		order: list.New(),
		byKey: make(map[string]*list.Element, limit),
	}
}

func (c *lruCache) get(fileID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[fileID]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).text, true
}

func (c *lruCache) put(fileID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[fileID]; ok {
		el.Value.(*cached).text = text
		c.order.MoveToFront(el)
		return
	}
	c.byKey[fileID] = c.order.PushFront(&cached{fileID: fileID, text: text})

	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cached).fileID)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
