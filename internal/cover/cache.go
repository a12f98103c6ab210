package cover

import (
	"encoding/json"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/handiism/vinyl-stack/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultStorageKey is the store key holding the encoded cover map.
	DefaultStorageKey = "coverImages"

	// DefaultDebounce is how long the cache waits after the last mutation
	// before writing to the store.
	DefaultDebounce = 2 * time.Second
)

// Map maps record IDs to validated cover image URLs.
type Map map[string]string

// Cache keeps resolved cover URLs in memory and writes them through to a
// store.Store. Writes are debounced: a burst of mutations results in one
// write of the map as it is when the timer fires.
//
// Every value in the cache passes IsValidImageURL.
//
// Example:
//
//	cache := cover.NewCache(st)
//	cache.Hydrate()                         // once, at startup
//	cache.Put("dsotm", "/covers/dsotm.jpg") // written ~2s later
//	defer cache.Close()                     // flush anything pending
type Cache struct {
	store store.Store
	key   string
	sched Scheduler
	log   zerolog.Logger

	clock    clockwork.Clock
	debounce time.Duration

	// writeMu serialises store writes and deletes so that a slow write
	// can never land after a newer one.
	writeMu sync.Mutex

	mu      sync.Mutex
	covers  Map
	pending bool
	dropped int

	hydrateOnce sync.Once
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStorageKey sets the store key. Defaults to DefaultStorageKey.
func WithStorageKey(key string) CacheOption {
	return func(c *Cache) {
		c.key = key
	}
}

// WithDebounce sets the write debounce interval. Defaults to DefaultDebounce.
func WithDebounce(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.debounce = d
	}
}

// WithClock sets the clock driving the default Debouncer.
func WithClock(clock clockwork.Clock) CacheOption {
	return func(c *Cache) {
		c.clock = clock
	}
}

// WithScheduler replaces the write scheduling policy entirely.
// WithDebounce and WithClock are ignored when this is set.
func WithScheduler(s Scheduler) CacheOption {
	return func(c *Cache) {
		c.sched = s
	}
}

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) CacheOption {
	return func(c *Cache) {
		c.log = l
	}
}

// NewCache creates an empty Cache backed by st. Call Hydrate to load
// previously persisted covers.
func NewCache(st store.Store, opts ...CacheOption) *Cache {
	c := &Cache{
		store:    st,
		key:      DefaultStorageKey,
		log:      log.Logger,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		covers:   make(Map),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sched == nil {
		c.sched = NewDebouncer(c.clock, c.debounce)
	}
	return c
}

// Hydrate loads the persisted map, dropping entries that fail
// validation. It runs at most once; later calls return the current map.
//
// A corrupt stored value is deleted and the cache starts empty. If any
// entries were dropped, the filtered map is scheduled to be written back.
func (c *Cache) Hydrate() Map {
	c.hydrateOnce.Do(c.hydrate)
	return c.Get()
}

func (c *Cache) hydrate() {
	raw, err := c.store.Get(c.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.log.Debug().Msg("no saved cover images found")
		} else {
			c.log.Error().Err(err).Msg("error reading saved cover images")
		}
		return
	}

	var parsed map[string]any
	err = json.Unmarshal(raw, &parsed)
	if err == nil && parsed == nil {
		err = errors.New("saved cover images are not an object")
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("discarding corrupt saved cover images")
		if err := c.store.Delete(c.key); err != nil {
			c.log.Error().Err(err).Msg("error deleting corrupt cover images")
		}
		return
	}

	validated := make(Map, len(parsed))
	invalid := 0
	for id, v := range parsed {
		if IsValidImageValue(v) {
			validated[id] = v.(string)
		} else {
			invalid++
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.covers = validated
	c.dropped = invalid
	if invalid > 0 {
		c.log.Warn().Int("invalid", invalid).Msg("dropped invalid saved cover urls")
		c.scheduleWrite()
	}
	c.log.Info().Int("count", len(validated)).Msg("loaded saved cover images")
}

// Dropped returns how many invalid entries Hydrate discarded.
func (c *Cache) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Get returns a snapshot of the in-memory map. It never reads the store.
func (c *Cache) Get() Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.covers)
}

// Lookup returns the cached cover URL for id.
func (c *Cache) Lookup(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.covers[id]
	return url, ok
}

// Len returns the number of cached covers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.covers)
}

// Put caches url for id and schedules a write. An empty id or an invalid
// url is ignored. The returned map is a snapshot after the update.
func (c *Cache) Put(id, url string) Map {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		c.log.Debug().Msg("not saving cover image: missing record id")
		return maps.Clone(c.covers)
	}
	if !IsValidImageURL(url) {
		c.log.Debug().Str("id", id).Str("url", url).Msg("not saving invalid cover url")
		return maps.Clone(c.covers)
	}

	c.covers[id] = url
	c.scheduleWrite()
	return maps.Clone(c.covers)
}

// PutAll replaces the whole map with the valid entries of m and schedules
// a write. Entries not present in m are dropped, not merged. A nil m is
// ignored.
func (c *Cache) PutAll(m Map) {
	if m == nil {
		c.log.Debug().Msg("not saving nil cover map")
		return
	}

	validated := make(Map, len(m))
	for id, url := range m {
		if IsValidImageURL(url) {
			validated[id] = url
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.covers = validated
	c.scheduleWrite()
}

// Prune drops entries that fail validation. A write is scheduled only if
// something was removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, url := range c.covers {
		if !IsValidImageURL(url) {
			delete(c.covers, id)
			removed++
		}
	}

	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("pruned invalid cover urls")
		c.scheduleWrite()
	}
	return removed
}

// Clear empties the cache, cancels any pending write and deletes the
// persisted value. Store errors are logged, not returned.
func (c *Cache) Clear() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.covers = make(Map)
	c.pending = false
	c.sched.Cancel()
	c.mu.Unlock()

	if err := c.store.Delete(c.key); err != nil {
		c.log.Error().Err(err).Msg("error clearing saved cover images")
		return
	}
	c.log.Info().Msg("cleared cover images")
}

// Flush writes a pending change immediately instead of waiting for the
// debounce timer.
func (c *Cache) Flush() {
	c.sched.Cancel()
	c.flushPending()
}

// Close flushes pending writes. It does not close the underlying store.
func (c *Cache) Close() error {
	c.Flush()
	return nil
}

// scheduleWrite marks the map dirty and (re)arms the scheduler.
// c.mu must be held.
func (c *Cache) scheduleWrite() {
	c.pending = true
	c.sched.Trigger(c.flushPending)
}

func (c *Cache) flushPending() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	data, err := json.Marshal(c.covers)
	count := len(c.covers)
	c.mu.Unlock()

	if err != nil {
		c.log.Error().Err(err).Msg("error encoding cover images")
		return
	}

	err = c.store.Set(c.key, data)
	if err == nil {
		c.log.Debug().Int("count", count).Msg("saved cover images")
		return
	}
	if !errors.Is(err, store.ErrQuotaExceeded) {
		c.log.Error().Err(err).Msg("error saving cover images")
		return
	}

	c.log.Warn().Err(err).Msg("storage quota exceeded, pruning and retrying")
	c.Prune()

	c.mu.Lock()
	data, err = json.Marshal(c.covers)
	c.mu.Unlock()
	if err != nil {
		c.log.Error().Err(err).Msg("error encoding cover images")
		return
	}

	if err := c.store.Set(c.key, data); err != nil {
		c.log.Error().Err(err).Msg("still unable to save cover images after pruning")
	}
}
