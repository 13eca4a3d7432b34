package disk

import (
	"fmt"
	"sync"

	. "github.com/weberc2/nachofs/pkg/types"
)

// Cache is a fixed-capacity least-recently-used set of sectors. Entries are
// preallocated; once full, pushing a new sector recycles the tail.
type Cache struct {
	head      *entry
	tail      *entry
	lookup    map[Sector]*entry
	allocator allocator
}

func NewCache(capacity int, sectorSize Byte) *Cache {
	return &Cache{
		lookup:    make(map[Sector]*entry, capacity),
		allocator: newAllocator(capacity, sectorSize),
	}
}

func (c *Cache) Len() int { return len(c.lookup) }

// Get copies the cached contents of `sector` into `p`.
func (c *Cache) Get(sector Sector, p []byte) bool {
	e, exists := c.lookup[sector]
	if !exists {
		return false
	}
	c.unlink(e)
	c.pushFront(e)
	copy(p, e.data)
	return true
}

// Push caches a copy of `p` as the contents of `sector`. It reports the
// evicted sector, if any.
func (c *Cache) Push(sector Sector, p []byte) (evicted Sector, evict bool) {
	e, exists := c.lookup[sector]
	if exists {
		c.unlink(e)
	} else if e = c.allocator.alloc(); e == nil {
		// a zero-capacity cache has no tail to recycle
		if c.tail == nil {
			return 0, false
		}
		e = c.tail
		c.unlink(e)
		delete(c.lookup, e.sector)
		evicted, evict = e.sector, true
	}

	e.sector = sector
	copy(e.data, p)
	c.lookup[sector] = e
	c.pushFront(e)
	return
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache) pushFront(e *entry) {
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

type entry struct {
	prev   *entry
	next   *entry
	sector Sector
	data   []byte
}

// allocator hands out preallocated entries until it runs dry. It never
// shrinks.
type allocator struct {
	length int
	pool   []entry
}

func newAllocator(capacity int, sectorSize Byte) allocator {
	pool := make([]entry, capacity)
	for i := range pool {
		pool[i].data = make([]byte, sectorSize)
	}
	return allocator{pool: pool}
}

func (a *allocator) alloc() *entry {
	if a.length >= len(a.pool) {
		return nil
	}
	ret := &a.pool[a.length]
	a.length++
	return ret
}

// CachingStore fronts a slower SectorStore with a Cache. Writes go through
// to the backend immediately, so nothing is lost on eviction.
type CachingStore struct {
	backend SectorStore
	cache   *Cache
	mutex   sync.Mutex
}

func NewCachingStore(
	backend SectorStore,
	capacity int,
	sectorSize Byte,
) *CachingStore {
	return &CachingStore{
		backend: backend,
		cache:   NewCache(capacity, sectorSize),
	}
}

func (store *CachingStore) ReadSector(sector Sector, p []byte) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.cache.Get(sector, p) {
		return nil
	}
	if err := store.backend.ReadSector(sector, p); err != nil {
		return fmt.Errorf(
			"reading sector `%d`: cache miss; checking backend store: %w",
			sector,
			err,
		)
	}
	store.cache.Push(sector, p)
	return nil
}

func (store *CachingStore) WriteSector(sector Sector, p []byte) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if err := store.backend.WriteSector(sector, p); err != nil {
		return fmt.Errorf("writing sector `%d` through cache: %w", sector, err)
	}
	store.cache.Push(sector, p)
	return nil
}
