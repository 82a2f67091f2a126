package classify

import (
	"container/list"
	"sync"
	"time"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

// Cache is a bounded, TTL-aware store for classification results keyed by
// input text. It is owned by the Cascade instance that created it rather
// than shared at package level, so tests can Reset it deterministically.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List // front = oldest
	now     func() time.Time
}

type cacheEntry struct {
	key     string
	res     model.ClassificationResult
	expires time.Time
}

func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns a copy of the cached result, if present and fresh.
func (c *Cache) Get(key string) (*model.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().After(ent.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return copyResult(&ent.res), true
}

// Put stores a copy of the result, evicting the oldest entry when full.
func (c *Cache) Put(key string, res *model.ClassificationResult) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	for len(c.entries) >= c.maxSize {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	ent := &cacheEntry{key: key, res: *copyResult(res), expires: c.now().Add(c.ttl)}
	c.entries[key] = c.order.PushBack(ent)
}

// Reset drops everything.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len reports the live entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func copyResult(in *model.ClassificationResult) *model.ClassificationResult {
	out := *in
	if in.Slots != nil {
		out.Slots = make(map[string]string, len(in.Slots))
		for k, v := range in.Slots {
			out.Slots[k] = v
		}
	}
	if in.Notes != nil {
		out.Notes = append([]string(nil), in.Notes...)
	}
	return &out
}
