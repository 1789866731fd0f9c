package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is one memoized photo resolution.
type Entry struct {
	URL       string    `json:"url"`
	ThumbURL  string    `json:"thumb_url,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Source    string    `json:"source,omitempty"`
	CachedAt  time.Time `json:"cached_at"`
}

// EnrichmentCache memoizes photo resolutions by normalized query key so
// repeat lookups short-circuit without re-running the provider waterfall.
// Reads never touch the network; the optional sqlite store makes entries
// survive restarts.
type EnrichmentCache struct {
	mem        *gocache.Cache
	store      *Store
	logger     *slog.Logger
	clock      func() time.Time
	ttl        time.Duration
	maxEntries int
}

func NewEnrichmentCache(ttl, cleanupInterval time.Duration, maxEntries int, store *Store, logger *slog.Logger) *EnrichmentCache {
	return &EnrichmentCache{
		mem:        gocache.New(ttl, cleanupInterval),
		store:      store,
		logger:     logger,
		clock:      time.Now,
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// WithClock replaces the cache clock, for staleness tests.
func (c *EnrichmentCache) WithClock(clock func() time.Time) *EnrichmentCache {
	c.clock = clock
	return c
}

// NormalizeKey lowercases and collapses whitespace so "Eiffel  Tower" and
// "eiffel tower" share one entry.
func NormalizeKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Get returns the entry for a normalized key, consulting the in-memory
// tier first and falling back to the on-disk store.
func (c *EnrichmentCache) Get(ctx context.Context, key string) (Entry, bool) {
	if v, found := c.mem.Get(key); found {
		return v.(Entry), true
	}
	if c.store == nil {
		return Entry{}, false
	}
	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.DebugContext(ctx, "On-disk cache read failed", slog.Any("error", err), slog.String("key", key))
		return Entry{}, false
	}
	if !found || c.clock().Sub(entry.CachedAt) > c.ttl {
		return Entry{}, false
	}
	// Promote to the memory tier for the next lookup.
	c.mem.Set(key, entry, gocache.DefaultExpiration)
	return entry, true
}

// Set records a successful resolution under the normalized key. Queries are
// unbounded free text, so the memory tier is flushed wholesale once it
// grows past maxEntries.
func (c *EnrichmentCache) Set(ctx context.Context, key string, entry Entry) {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.clock()
	}
	if c.maxEntries > 0 && c.mem.ItemCount() >= c.maxEntries {
		c.mem.Flush()
	}
	c.mem.Set(key, entry, gocache.DefaultExpiration)

	if c.store != nil {
		if err := c.store.Put(ctx, key, entry); err != nil {
			c.logger.DebugContext(ctx, "On-disk cache write failed", slog.Any("error", err), slog.String("key", key))
		}
	}
}

// Len reports the number of live in-memory entries.
func (c *EnrichmentCache) Len() int {
	return c.mem.ItemCount()
}
