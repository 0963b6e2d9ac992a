// Package cache keeps encoded method graphs in a bounded LRU with disk
// persistence.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tidwall/tinylru"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-vir-cfg/internal/log"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

// DefaultMaxEntries is used when Options.MaxEntries is not positive.
const DefaultMaxEntries = 256

var (
	// ErrKeyNotFound is returned when a method is not in the cache.
	ErrKeyNotFound = errors.New("key not found")

	// ErrCorrupted is returned when an entry does not match its digest.
	ErrCorrupted = errors.New("cache entry corrupted")
)

// Entry is one cached method in its encoded form.
type Entry struct {
	Name     string    `msgpack:"name" json:"name"`
	Data     []byte    `msgpack:"data" json:"-"`
	Digest   string    `msgpack:"digest" json:"digest"`
	Blocks   int       `msgpack:"blocks" json:"blocks"`
	StoredAt time.Time `msgpack:"stored_at" json:"stored_at"`
}

// Stats holds cache statistics.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Options configures a MethodCache.
type Options struct {
	// MaxEntries is the maximum number of methods kept.
	MaxEntries int

	// OnEvict is called with the name of every evicted method.
	OnEvict func(name string)

	Logger log.Logger
}

// MethodCache stores methods keyed by name. Stored graphs are detached
// from the caller's graph: Get always returns a graph with a new identity.
type MethodCache struct {
	mu         sync.Mutex
	lru        tinylru.LRU
	maxEntries int
	onEvict    func(name string)
	logger     log.Logger
	stats      Stats
}

// New creates an empty cache.
func New(opts Options) *MethodCache {
	c := &MethodCache{
		maxEntries: opts.MaxEntries,
		onEvict:    opts.OnEvict,
		logger:     opts.Logger,
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if c.logger == nil {
		c.logger = log.Nop()
	}
	c.lru.Resize(c.maxEntries)
	return c
}

// Put encodes m and stores it under its name, replacing any previous entry.
func (c *MethodCache) Put(m *cfg.Method) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	c.set(Entry{
		Name:     m.Name(),
		Data:     data,
		Digest:   HashBytes(data),
		Blocks:   m.Len(),
		StoredAt: time.Now(),
	})
	return nil
}

func (c *MethodCache) set(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _, evictedKey, _, evicted := c.lru.SetEvicted(e.Name, e)
	if !evicted {
		return
	}
	name := evictedKey.(string)
	c.stats.Evictions++
	c.logger.Debug("evicted method", "name", name)
	if c.onEvict != nil {
		c.onEvict(name)
	}
}

// Get decodes the method stored under name. The returned graph has a fresh
// identity; indices from any earlier copy do not apply to it.
func (c *MethodCache) Get(name string, opts ...cfg.Option) (*cfg.Method, error) {
	e, ok := c.entry(name)
	if !ok {
		return nil, fmt.Errorf("method %s: %w", name, ErrKeyNotFound)
	}
	if HashBytes(e.Data) != e.Digest {
		return nil, fmt.Errorf("method %s: %w", name, ErrCorrupted)
	}
	m, err := cfg.Unmarshal(e.Data, opts...)
	if err != nil {
		return nil, fmt.Errorf("cached method %s: %w", name, err)
	}
	return m, nil
}

func (c *MethodCache) entry(name string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(name)
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}
	c.stats.Hits++
	return v.(Entry), true
}

// Delete removes the method stored under name.
func (c *MethodCache) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, deleted := c.lru.Delete(name)
	return deleted
}

// Len returns the number of cached methods.
func (c *MethodCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear removes every entry. Statistics are kept.
func (c *MethodCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru = tinylru.LRU{}
	c.lru.Resize(c.maxEntries)
}

// Entries returns the cached entries from least to most recently used.
func (c *MethodCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, c.lru.Len())
	c.lru.Reverse(func(_, v interface{}) bool {
		entries = append(entries, v.(Entry))
		return true
	})
	return entries
}

// Stats returns a copy of the statistics.
func (c *MethodCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns the fraction of Get calls that found an entry.
func (c *MethodCache) HitRate() float64 {
	s := c.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Save writes every entry to w using msgpack, least recently used first.
func (c *MethodCache) Save(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(c.Entries())
}

// Load replaces the contents of the cache with the entries read from r.
// Entries beyond the capacity evict the oldest ones, as with Put.
func (c *MethodCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}
	c.Clear()
	for _, e := range entries {
		c.set(e)
	}
	return nil
}

// PersistToFile saves the cache to path, creating parent directories.
func PersistToFile(c *MethodCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	return saveAndClose(c, f)
}

// saveAndClose writes c to w and closes w. A failed close is an error.
func saveAndClose(c *MethodCache, w io.WriteCloser) error {
	if err := c.Save(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	return nil
}

// LoadFromFile loads the cache from path. A missing file leaves the cache
// empty.
func LoadFromFile(c *MethodCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
