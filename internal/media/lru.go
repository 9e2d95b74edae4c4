package media

import (
	"container/list"
	"sync"

	"media-lightbox/internal/mediatypes"
)

// byteCache keeps fetched renditions up to a total byte budget and evicts
// the least recently used ones first.
type byteCache struct {
	mu       sync.Mutex
	maxBytes int64
	size     int64
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	url    string
	handle *mediatypes.ImageHandle
}

func newByteCache(maxBytes int64) *byteCache {
	return &byteCache{
		maxBytes: maxBytes,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *byteCache) get(url string) (*mediatypes.ImageHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).handle, true
}

// add stores handle. Entries larger than the whole budget are not kept.
func (c *byteCache) add(url string, handle *mediatypes.ImageHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(handle.Data))
	if c.maxBytes <= 0 || size > c.maxBytes {
		return
	}

	if el, ok := c.entries[url]; ok {
		c.size -= int64(len(el.Value.(*cacheEntry).handle.Data))
		el.Value.(*cacheEntry).handle = handle
		c.order.MoveToFront(el)
	} else {
		c.entries[url] = c.order.PushFront(&cacheEntry{url: url, handle: handle})
	}
	c.size += size
	c.evictTo(c.maxBytes)
}

// shrink evicts until at most target bytes are held and returns the bytes
// freed.
func (c *byteCache) shrink(target int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.size
	c.evictTo(max(target, 0))
	return before - c.size
}

func (c *byteCache) evictTo(target int64) {
	for c.size > target {
		oldest := c.order.Back()
		entry := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, entry.url)
		c.size -= int64(len(entry.handle.Data))
	}
}

func (c *byteCache) bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *byteCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
