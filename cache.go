package irrigate

import "sync"

// This file implements the per-channel memoisation cache: three
// independent slots (ET0, Kc, water balance), each tolerance-keyed,
// with lazy-on-read eviction and hit/miss counters.

type et0CacheKey struct {
	tempMinC, tempMaxC, humidityPct, pressureHPa, latRad float64
	dayOfYear                                            int
}

type et0CacheEntry struct {
	key    et0CacheKey
	value  float64
	validAt uint64
}

type kcCacheKey struct {
	plantIndex int
	dap        int
}

type kcCacheEntry struct {
	key     kcCacheKey
	value   float64
	validAt uint64
}

type wbCacheKey struct {
	channelID, plantIndex, soilIndex, methodIndex int
	rootDepthM                                    float64
}

type wbCacheEntry struct {
	key     wbCacheKey
	value   WaterBalance
	validAt uint64
}

type channelCacheSlots struct {
	et0 *et0CacheEntry
	kc  *kcCacheEntry
	wb  *wbCacheEntry
}

// Cache is the process-wide memoisation cache, one slot set per
// channel. All mutation is guarded by a single mutex; the cache's own
// critical sections are short enough that a single global lock beats
// per-channel locks here.
type Cache struct {
	mu       sync.Mutex
	enabled  bool
	slots    map[int]*channelCacheSlots
	hits     int64
	misses   int64
	c        *Constants
}

// NewCache constructs an enabled, empty cache (init_cache).
func NewCache(c *Constants) *Cache {
	return &Cache{
		enabled: true,
		slots:   make(map[int]*channelCacheSlots),
		c:       c,
	}
}

func (ch *Cache) slotsFor(channelID int) *channelCacheSlots {
	s, ok := ch.slots[channelID]
	if !ok {
		s = &channelCacheSlots{}
		ch.slots[channelID] = s
	}
	return s
}

// SetEnabled implements set_cache_enabled; disabling clears all
// entries immediately.
func (ch *Cache) SetEnabled(enabled bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.enabled = enabled
	if !enabled {
		ch.slots = make(map[int]*channelCacheSlots)
	}
}

// Clear implements clear_cache.
func (ch *Cache) Clear() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.slots = make(map[int]*channelCacheSlots)
}

// ClearChannel implements clear_channel_cache.
func (ch *Cache) ClearChannel(channelID int) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.slots, channelID)
}

// Stats is the result of get_cache_stats.
type Stats struct {
	Hits, Misses int64
	Ratio        float64
}

// Stats implements get_cache_stats.
func (ch *Cache) Stats() Stats {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	total := ch.hits + ch.misses
	var ratio float64
	if total > 0 {
		ratio = float64(ch.hits) / float64(total)
	}
	return Stats{Hits: ch.hits, Misses: ch.misses, Ratio: ratio}
}

// maybeAutoClear clears the whole cache when the hit ratio has fallen
// below the configured floor over enough samples.
func (ch *Cache) maybeAutoClear() {
	total := ch.hits + ch.misses
	if total >= ch.c.CacheHitRatioMinSamples {
		ratio := float64(ch.hits) / float64(total)
		if ratio < ch.c.CacheHitRatioFloor {
			ch.slots = make(map[int]*channelCacheSlots)
			ch.hits, ch.misses = 0, 0
		}
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// LookupET0 returns a cached ET0 value if key matches within tolerance
// and age.
func (ch *Cache) LookupET0(channelID int, key et0CacheKey, nowMS uint64) (float64, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.enabled {
		return 0, false
	}
	slot := ch.slotsFor(channelID).et0
	if slot == nil {
		ch.misses++
		ch.maybeAutoClear()
		return 0, false
	}
	age := nowMS - slot.validAt
	if age > uint64(ch.c.CacheET0MaxAgeSec)*1000 ||
		key.dayOfYear != slot.key.dayOfYear ||
		absF(key.tempMinC-slot.key.tempMinC) >= ch.c.CacheET0TempToleranceC ||
		absF(key.tempMaxC-slot.key.tempMaxC) >= ch.c.CacheET0TempToleranceC ||
		absF(key.humidityPct-slot.key.humidityPct) >= ch.c.CacheET0HumidTolerancePct ||
		absF(key.pressureHPa-slot.key.pressureHPa) >= ch.c.CacheET0PressToleranceHPa ||
		absF(key.latRad-slot.key.latRad) >= ch.c.CacheET0LatToleranceRad {
		ch.misses++
		ch.maybeAutoClear()
		return 0, false
	}
	ch.hits++
	return slot.value, true
}

// StoreET0 stores an ET0 result.
func (ch *Cache) StoreET0(channelID int, key et0CacheKey, value float64, nowMS uint64) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.enabled {
		return
	}
	ch.slotsFor(channelID).et0 = &et0CacheEntry{key: key, value: value, validAt: nowMS}
}

// LookupKc returns a cached Kc value if the key matches exactly and the
// entry has not aged out.
func (ch *Cache) LookupKc(channelID int, key kcCacheKey, nowMS uint64) (float64, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.enabled {
		return 0, false
	}
	slot := ch.slotsFor(channelID).kc
	if slot == nil || slot.key != key || nowMS-slot.validAt > uint64(ch.c.CacheKcMaxAgeSec)*1000 {
		ch.misses++
		ch.maybeAutoClear()
		return 0, false
	}
	ch.hits++
	return slot.value, true
}

// StoreKc stores a Kc result.
func (ch *Cache) StoreKc(channelID int, key kcCacheKey, value float64, nowMS uint64) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.enabled {
		return
	}
	ch.slotsFor(channelID).kc = &kcCacheEntry{key: key, value: value, validAt: nowMS}
}

// LookupWaterBalance returns a cached static water-balance shape
// (AWC/RAW) if the key matches within tolerance and age.
func (ch *Cache) LookupWaterBalance(channelID int, key wbCacheKey, nowMS uint64) (WaterBalance, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.enabled {
		return WaterBalance{}, false
	}
	slot := ch.slotsFor(channelID).wb
	if slot == nil {
		ch.misses++
		ch.maybeAutoClear()
		return WaterBalance{}, false
	}
	age := nowMS - slot.validAt
	if age > uint64(ch.c.CacheWBMaxAgeSec)*1000 ||
		key.channelID != slot.key.channelID ||
		key.plantIndex != slot.key.plantIndex ||
		key.soilIndex != slot.key.soilIndex ||
		key.methodIndex != slot.key.methodIndex ||
		absF(key.rootDepthM-slot.key.rootDepthM) >= ch.c.CacheWBRootDepthToleranceM {
		ch.misses++
		ch.maybeAutoClear()
		return WaterBalance{}, false
	}
	ch.hits++
	return slot.value, true
}

// StoreWaterBalance stores a water-balance shape result.
func (ch *Cache) StoreWaterBalance(channelID int, key wbCacheKey, value WaterBalance, nowMS uint64) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.enabled {
		return
	}
	ch.slotsFor(channelID).wb = &wbCacheEntry{key: key, value: value, validAt: nowMS}
}
