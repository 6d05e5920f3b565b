package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"runlog/activity"
	"runlog/internal/fileutil"
)

var ErrNotFound = errors.New("cache entry not found")

// Entry is one persisted decision. A null Value records an explicit "no value".
type Entry struct {
	Version string          `json:"version"`
	Value   json.RawMessage `json:"value"`
}

// Cache is a persistent map keyed by activity identifier. It never evicts.
type Cache struct {
	path    string
	entries map[string]Entry
	logger  *slog.Logger
}

func New(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]Entry), logger: slog.Default()}
}

// Load reads the cache file at path. A missing file yields an empty cache.
func Load(path string) (*Cache, error) {
	c := New(path)

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("cache file not found, starting empty", "path", path)
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(content, &c.entries); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	c.logger.Debug("cache loaded", "path", path, "entries", len(c.entries))
	return c, nil
}

func (c *Cache) Path() string {
	return c.path
}

// Key converts an identifier into the canonical form used for storage, so
// that 42 and "42" address the same entry.
func Key(key any) string {
	switch typed := key.(type) {
	case string:
		return typed
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case json.Number:
		return typed.String()
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// Contains is true only when an entry exists and was written under version.
func (c *Cache) Contains(key any, version string) bool {
	entry, ok := c.entries[Key(key)]
	return ok && entry.Version == version
}

func (c *Cache) Get(key any) (json.RawMessage, error) {
	canonical := Key(key)
	entry, ok := c.entries[canonical]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", canonical, ErrNotFound)
	}
	if len(entry.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return entry.Value, nil
}

func (c *Cache) Entry(key any) (Entry, bool) {
	entry, ok := c.entries[Key(key)]
	return entry, ok
}

// Decode unmarshals the value stored for key into out. It reports false when
// the stored value is null.
func (c *Cache) Decode(key any, out any) (bool, error) {
	value, err := c.Get(key)
	if err != nil {
		return false, err
	}
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("decode cache value for %q: %w", Key(key), err)
	}
	return true, nil
}

// GetIntervals returns the intervals stored for key. ok is false for a null value.
func (c *Cache) GetIntervals(key any) (activity.Intervals, bool, error) {
	var intervals activity.Intervals
	ok, err := c.Decode(key, &intervals)
	if err != nil || !ok {
		return nil, ok, err
	}
	if intervals == nil {
		intervals = activity.Intervals{}
	}
	return intervals, true, nil
}

// Set upserts the value for key. A nil value is stored as null.
func (c *Cache) Set(key any, version string, value any) error {
	content, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %q: %w", Key(key), err)
	}
	c.entries[Key(key)] = Entry{Version: version, Value: content}
	return nil
}

func (c *Cache) Delete(key any) bool {
	canonical := Key(key)
	if _, ok := c.entries[canonical]; !ok {
		return false
	}
	delete(c.entries, canonical)
	return true
}

func (c *Cache) Clear() {
	c.entries = make(map[string]Entry)
}

func (c *Cache) Len() int {
	return len(c.entries)
}

// Keys returns all keys in ascending order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (c *Cache) Save() error {
	return c.SaveTo(c.path)
}

// SaveTo writes the whole map to path.
func (c *Cache) SaveTo(path string) error {
	content, err := json.MarshalIndent(c.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	c.logger.Debug("cache saved", "path", path, "entries", len(c.entries))
	return nil
}
