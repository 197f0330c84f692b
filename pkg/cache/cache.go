// Package cache implements the proxy's shared, URL-keyed content cache:
// exact-match lookup, LRU eviction under a total-size ceiling, and a
// read-write lock. The reference proxy this package reimplements
// hand-rolls a readers-preferred protocol with two counting semaphores and
// a reader count; here a single sync.RWMutex (spec.md §9 design note: "a
// single read-write lock is preferred") guards the map and its LRU
// bookkeeping. Unlike the reference protocol, sync.RWMutex blocks new
// readers while a writer is waiting, so a stream of hits cannot starve
// Insert or Touch.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/cacheproxy/webproxy/pkg/config"
	"github.com/cacheproxy/webproxy/pkg/proxyerrors"
)

// Entry is a single cached response body.
type Entry struct {
	URL     string
	Content []byte
	Size    int
	lruTick int64
}

// Stats is a point-in-time snapshot of cache occupancy, used by the admin
// surface and by tests asserting the size invariants.
type Stats struct {
	Entries       int
	TotalSize     int64
	MaxCacheSize  int64
	MaxObjectSize int64
}

// Cache is the shared content cache. The zero value is not usable; use New.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	totalSize int64
	counter   int64

	maxCacheSize  int64
	maxObjectSize int64

	log *zap.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New returns an empty cache bounded by the package-default size ceilings.
func New(log *zap.Logger) *Cache {
	return NewWithLimits(config.MaxCacheSize, config.MaxObjectSize, log)
}

// NewWithLimits returns an empty cache with caller-supplied size ceilings,
// primarily so tests can exercise eviction without allocating megabytes of
// cache content.
func NewWithLimits(maxCacheSize, maxObjectSize int, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		entries:       make(map[string]*Entry),
		maxCacheSize:  int64(maxCacheSize),
		maxObjectSize: int64(maxObjectSize),
		log:           log,
	}
}

// Find looks up url and returns a stable reference to its entry. The
// caller must finish copying/streaming the returned bytes before any
// subsequent writer call can mutate or evict them — satisfied here
// because the entry's Content slice is never mutated in place (Insert on
// an existing URL allocates a new slice rather than overwriting the old
// one), so a reference returned under RLock stays valid after RUnlock.
func (c *Cache) Find(url string) (*Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Touch refreshes an entry's LRU tick after a cache hit. It is a writer
// operation even though it only mutates one field, because it races with
// concurrent Insert/evict bookkeeping (spec.md §4.3).
func (c *Cache) Touch(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter++
	e.lruTick = c.counter
}

// Insert stores content under url, evicting least-recently-used entries
// until it fits. size must be in (0, MaxObjectSize]; violating this is a
// caller precondition error, not a runtime condition, per spec.md §7.
func (c *Cache) Insert(url string, content []byte) error {
	size := len(content)
	if size <= 0 || int64(size) > c.maxObjectSize {
		return proxyerrors.NewCacheError("insert", "size must be in (0, MAX_OBJECT_SIZE]")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	if existing, ok := c.entries[url]; ok {
		// A fresh *Entry is installed rather than mutating the existing
		// one in place: a concurrent reader may still hold the old
		// pointer from a Find that happened before this lock was
		// acquired and is streaming its Content outside any lock
		// (spec.md §4.3's read-critical-section contract). Mutating
		// Content/Size on that shared object would race with that read.
		delete(c.entries, url)
		c.totalSize -= int64(existing.Size)
	}

	for c.totalSize+int64(size) > c.maxCacheSize {
		victim := c.evictLocked()
		if victim == nil {
			break
		}
	}

	c.entries[url] = &Entry{
		URL:     url,
		Content: content,
		Size:    size,
		lruTick: c.counter,
	}
	c.totalSize += int64(size)
	return nil
}

// evictLocked removes the entry with the smallest lruTick. Caller must
// hold the write lock. Returns the evicted entry, or nil if the cache is
// empty.
func (c *Cache) evictLocked() *Entry {
	var victim *Entry
	for _, e := range c.entries {
		if victim == nil || e.lruTick < victim.lruTick {
			victim = e
		}
	}
	if victim == nil {
		return nil
	}

	delete(c.entries, victim.URL)
	c.totalSize -= int64(victim.Size)
	c.evictions.Add(1)

	c.log.Debug("cache evict",
		zap.String("url", victim.URL),
		zap.String("evicted_size", humanize.Bytes(uint64(victim.Size))),
		zap.String("total_size", humanize.Bytes(uint64(c.totalSize))),
	)
	return victim
}

// Stats returns a snapshot of cache occupancy.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:       len(c.entries),
		TotalSize:     c.totalSize,
		MaxCacheSize:  c.maxCacheSize,
		MaxObjectSize: c.maxObjectSize,
	}
}

// Hits returns the cumulative number of Find calls that returned a hit.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the cumulative number of Find calls that returned a miss.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Evictions returns the cumulative number of entries evicted.
func (c *Cache) Evictions() int64 { return c.evictions.Load() }
