package types

import (
	"fmt"
	"hash/maphash"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
)

const (
	shardBits  = 5
	shardCount = 1 << shardBits
	pageBits   = 10
	pageSize   = 1 << pageBits
	pageMask   = pageSize - 1
)

// arena is an append-only paged store. Pages never move once published, so
// readers index them without locking; a slot is written before its index is
// handed out.
type arena[V any] struct {
	mu    sync.Mutex
	size  atomic.Uint32
	pages atomic.Pointer[[]*[pageSize]V]
}

func (a *arena[V]) append(v V) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.size.Load()
	if idx == ^uint32(0) {
		panic(fmt.Errorf("types: arena exhausted at %d slots", idx))
	}
	var pages []*[pageSize]V
	if dir := a.pages.Load(); dir != nil {
		pages = *dir
	}
	page := int(idx >> pageBits)
	if page >= len(pages) {
		grown := make([]*[pageSize]V, page+1, max(2*len(pages), page+1))
		copy(grown, pages)
		grown[page] = new([pageSize]V)
		pages = grown
		a.pages.Store(&grown)
	}
	pages[page][idx&pageMask] = v
	a.size.Store(idx + 1)
	return idx
}

func (a *arena[V]) get(idx uint32) (V, bool) {
	var zero V
	if idx >= a.size.Load() {
		return zero, false
	}
	dir := a.pages.Load()
	if dir == nil {
		return zero, false
	}
	pages := *dir
	page := int(idx >> pageBits)
	if page >= len(pages) {
		return zero, false
	}
	return pages[page][idx&pageMask], true
}

func (a *arena[V]) len() int {
	return int(a.size.Load())
}

type tableShard[K comparable] struct {
	mu    sync.RWMutex
	index map[K]uint32
}

// table deduplicates values by key. Keys are spread over shards so that
// unrelated first-interning calls do not contend; lookups by slot never lock.
type table[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]tableShard[K]
	values arena[V]
}

func newTable[K comparable, V any]() *table[K, V] {
	t := &table[K, V]{seed: maphash.MakeSeed()}
	for i := range t.shards {
		t.shards[i].index = make(map[K]uint32, 16)
	}
	var zero V
	t.values.append(zero) // reserve 0 as invalid sentinel
	return t
}

func (t *table[K, V]) shardFor(key K) *tableShard[K] {
	h := maphash.Comparable(t.seed, key)
	return &t.shards[h&(shardCount-1)]
}

// intern returns the slot for key, storing build() on first use.
func (t *table[K, V]) intern(key K, build func() V) uint32 {
	sh := t.shardFor(key)
	sh.mu.RLock()
	slot, ok := sh.index[key]
	sh.mu.RUnlock()
	if ok {
		return slot
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if slot, ok := sh.index[key]; ok {
		return slot
	}
	slot = t.values.append(build())
	sh.index[key] = slot
	return slot
}

// find reports the slot for key without inserting.
func (t *table[K, V]) find(key K) (uint32, bool) {
	sh := t.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	slot, ok := sh.index[key]
	return slot, ok
}

func (t *table[K, V]) get(slot uint32) (V, bool) {
	if slot == 0 {
		var zero V
		return zero, false
	}
	return t.values.get(slot)
}

func (t *table[K, V]) len() int {
	return t.values.len()
}

func lenU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("types: length overflow: %w", err))
	}
	return v
}
