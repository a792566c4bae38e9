package main

import (
	"sort"
	"sync"
	"sync/atomic"
)

const cacheVeryOldGenerations = 8

// SolveEntry is one cached solve outcome. Moves is enough to rebuild the
// board path by replaying from the start board, so full paths are never
// stored.
type SolveEntry struct {
	Key         uint64
	Algorithm   string
	Heuristic   string
	Found       bool
	Moves       []Move
	Stats       SearchStats
	Hits        uint32
	GenWritten  uint32
	GenLastUsed uint32
	Valid       bool
}

// SolveCache is a fixed-capacity set-associative table of solve results.
// Entries land in a bucket chosen by key; RW locks are striped across
// bucket groups so concurrent solves rarely contend.
type SolveCache struct {
	mask        uint64
	buckets     int
	entries     []SolveEntry
	stripeLocks []sync.RWMutex
	stripeMask  uint64
	gen         atomic.Uint32
}

func NewSolveCache(size uint64, buckets int) *SolveCache {
	if buckets <= 0 {
		buckets = 2
	}
	if size < 1 {
		size = 1
	}
	if (size & (size - 1)) != 0 {
		size = nextPowerOfTwo(size)
	}
	maxStripes := 64
	if int(size) < maxStripes {
		maxStripes = int(size)
	}
	stripes := 1
	for stripes*2 <= maxStripes {
		stripes *= 2
	}
	c := &SolveCache{
		mask:        size - 1,
		buckets:     buckets,
		entries:     make([]SolveEntry, int(size)*buckets),
		stripeLocks: make([]sync.RWMutex, stripes),
		stripeMask:  uint64(stripes - 1),
	}
	c.gen.Store(1)
	return c
}

// NextGeneration ages every entry by one step. Generation zero is reserved
// for never-written entries, so the counter skips it on wrap.
func (c *SolveCache) NextGeneration() {
	gen := c.gen.Add(1)
	if gen == 0 {
		c.gen.CompareAndSwap(0, 1)
	}
}

func (c *SolveCache) Generation() uint32 {
	return c.currentGeneration()
}

func (c *SolveCache) Clear() {
	c.lockAllStripes()
	defer c.unlockAllStripes()
	for i := range c.entries {
		c.entries[i] = SolveEntry{}
	}
	c.gen.Store(1)
}

func (c *SolveCache) bucketIndex(key uint64) int {
	return int(key&c.mask) * c.buckets
}

func (c *SolveCache) stripeIndexForKey(key uint64) int {
	return int((key & c.mask) & c.stripeMask)
}

// Probe finds the entry for key, bumping its hit count and recency.
func (c *SolveCache) Probe(key uint64) (SolveEntry, bool) {
	stripe := c.stripeIndexForKey(key)
	c.stripeLocks[stripe].Lock()
	defer c.stripeLocks[stripe].Unlock()
	gen := c.currentGeneration()
	start := c.bucketIndex(key)
	for i := 0; i < c.buckets; i++ {
		idx := start + i
		entry := c.entries[idx]
		if !entry.Valid || entry.Key != key {
			continue
		}
		entry.Hits++
		entry.GenLastUsed = gen
		c.entries[idx] = entry
		return entry, true
	}
	return SolveEntry{}, false
}

// Store writes entry into its bucket. An existing entry for the same key is
// refreshed in place keeping its hit count (solves are deterministic, the
// payload cannot differ). With the bucket full, the victim is the least
// defensible entry: very old first, then never-probed; recently used
// entries survive and the store is dropped if nothing qualifies.
func (c *SolveCache) Store(entry SolveEntry) bool {
	stripe := c.stripeIndexForKey(entry.Key)
	c.stripeLocks[stripe].Lock()
	defer c.stripeLocks[stripe].Unlock()
	gen := c.currentGeneration()
	entry.GenWritten = gen
	entry.GenLastUsed = gen
	entry.Valid = true
	start := c.bucketIndex(entry.Key)

	for i := 0; i < c.buckets; i++ {
		idx := start + i
		existing := c.entries[idx]
		if !existing.Valid || existing.Key != entry.Key {
			continue
		}
		entry.Hits = existing.Hits
		c.entries[idx] = entry
		return true
	}

	for i := 0; i < c.buckets; i++ {
		idx := start + i
		if c.entries[idx].Valid {
			continue
		}
		c.entries[idx] = entry
		return true
	}

	victim := -1
	victimClass := 0
	victimAge := uint32(0)
	for i := 0; i < c.buckets; i++ {
		idx := start + i
		class := replacementClass(c.entries[idx], gen)
		if class == 0 {
			continue
		}
		age := entryAge(gen, c.entries[idx])
		if victim == -1 || class < victimClass || (class == victimClass && age > victimAge) {
			victim = idx
			victimClass = class
			victimAge = age
		}
	}
	if victim == -1 {
		return false
	}
	c.entries[victim] = entry
	return true
}

func (c *SolveCache) DeleteByKey(key uint64) bool {
	stripe := c.stripeIndexForKey(key)
	c.stripeLocks[stripe].Lock()
	defer c.stripeLocks[stripe].Unlock()
	start := c.bucketIndex(key)
	deleted := false
	for i := 0; i < c.buckets; i++ {
		idx := start + i
		entry := c.entries[idx]
		if !entry.Valid || entry.Key != key {
			continue
		}
		c.entries[idx] = SolveEntry{}
		deleted = true
	}
	return deleted
}

// TopEntriesByHits returns a page of entries ordered by popularity, plus the
// total number of valid entries.
func (c *SolveCache) TopEntriesByHits(offset int, limit int) ([]SolveEntry, int) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	entries := c.snapshotEntries()
	valid := make([]SolveEntry, 0, len(entries))
	for i := range entries {
		if entries[i].Valid {
			valid = append(valid, entries[i])
		}
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Hits != valid[j].Hits {
			return valid[i].Hits > valid[j].Hits
		}
		if valid[i].GenLastUsed != valid[j].GenLastUsed {
			return valid[i].GenLastUsed > valid[j].GenLastUsed
		}
		return valid[i].Key < valid[j].Key
	})
	total := len(valid)
	if offset >= total {
		return []SolveEntry{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return valid[offset:end], total
}

func (c *SolveCache) Count() int {
	c.lockAllStripesRead()
	defer c.unlockAllStripesRead()
	count := 0
	for i := range c.entries {
		if c.entries[i].Valid {
			count++
		}
	}
	return count
}

func (c *SolveCache) Capacity() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *SolveCache) currentGeneration() uint32 {
	gen := c.gen.Load()
	if gen != 0 {
		return gen
	}
	if c.gen.CompareAndSwap(0, 1) {
		return 1
	}
	gen = c.gen.Load()
	if gen == 0 {
		return 1
	}
	return gen
}

func (c *SolveCache) lockAllStripes() {
	for i := range c.stripeLocks {
		c.stripeLocks[i].Lock()
	}
}

func (c *SolveCache) unlockAllStripes() {
	for i := len(c.stripeLocks) - 1; i >= 0; i-- {
		c.stripeLocks[i].Unlock()
	}
}

func (c *SolveCache) lockAllStripesRead() {
	for i := range c.stripeLocks {
		c.stripeLocks[i].RLock()
	}
}

func (c *SolveCache) unlockAllStripesRead() {
	for i := len(c.stripeLocks) - 1; i >= 0; i-- {
		c.stripeLocks[i].RUnlock()
	}
}

func (c *SolveCache) snapshotEntries() []SolveEntry {
	c.lockAllStripes()
	defer c.unlockAllStripes()
	entries := make([]SolveEntry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

func replacementClass(entry SolveEntry, gen uint32) int {
	if entryAge(gen, entry) >= cacheVeryOldGenerations {
		return 1
	}
	if entry.Hits == 0 {
		return 2
	}
	return 0
}

func entryAge(gen uint32, entry SolveEntry) uint32 {
	last := entry.GenLastUsed
	if last == 0 {
		last = entry.GenWritten
	}
	return gen - last
}

func nextPowerOfTwo(v uint64) uint64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
