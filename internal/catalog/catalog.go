package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/mbellec/scriptforge/internal/classify"
)

// Entry describes one generated script. Entries are immutable after
// registration; regenerating a script creates a new entry.
type Entry struct {
	Name        string            `json:"-"`
	Path        string            `json:"path"`
	Kind        classify.Kind     `json:"type"`
	Description string            `json:"description"`
	Created     time.Time         `json:"created"`
	Params      map[string]string `json:"params,omitempty"`
}

// fileData is the on-disk shape. Unknown fields in entries are ignored
// on load so the file stays forward-readable.
type fileData struct {
	Scripts map[string]Entry `json:"scripts"`
}

// Catalog is the persistent registry of generated scripts, backed by a
// single JSON file. It is the source of truth for which scripts exist,
// not for which are running. Writes go through a dirty flag so Save is
// a no-op when nothing changed, and the file itself is guarded by an
// OS-level lock in case the catalog is shared between processes.
type Catalog struct {
	mu      sync.Mutex
	path    string
	lock    *flock.Flock
	logger  *slog.Logger
	entries map[string]Entry
	order   []string
	dirty   bool
}

func New(path string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		path:    path,
		lock:    flock.New(path + ".lock"),
		logger:  logger,
		entries: make(map[string]Entry),
	}
}

// Path returns the backing file location.
func (c *Catalog) Path() string { return c.path }

// Load reads the backing file. An absent or corrupt file yields an
// empty catalog and a logged warning; loading never fails.
func (c *Catalog) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
	c.order = nil
	c.dirty = false

	if err := c.lock.Lock(); err != nil {
		c.logger.Warn("catalog lock failed, starting empty", "path", c.path, "error", err)
		return
	}
	defer func() { _ = c.lock.Unlock() }()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("catalog unreadable, starting empty", "path", c.path, "error", err)
		}
		return
	}
	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		c.logger.Warn("catalog corrupt, starting empty", "path", c.path, "error", err)
		return
	}
	for name, e := range fd.Scripts {
		e.Name = name
		c.entries[name] = e
		c.order = append(c.order, name)
	}
	// Registration order is reconstructed chronologically.
	sort.Slice(c.order, func(i, j int) bool {
		a, b := c.entries[c.order[i]], c.entries[c.order[j]]
		if a.Created.Equal(b.Created) {
			return c.order[i] < c.order[j]
		}
		return a.Created.Before(b.Created)
	})
}

// Save writes the catalog if it changed since the last save. Failures
// are returned for logging but the catalog stays usable.
func (c *Catalog) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = c.lock.Unlock() }()

	fd := fileData{Scripts: c.entries}
	data, err := json.MarshalIndent(fd, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace catalog: %w", err)
	}
	c.dirty = false
	return nil
}

// Register adds or overwrites an entry by name and marks the catalog
// dirty.
func (c *Catalog) Register(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[e.Name]; !exists {
		c.order = append(c.order, e.Name)
	}
	c.entries[e.Name] = e
	c.dirty = true
}

// Find returns the first entry, in registration order, whose name or
// description contains query (case-insensitive).
func (c *Catalog) Find(query string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Entry{}, false
	}
	for _, name := range c.order {
		e := c.entries[name]
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			return e, true
		}
	}
	return Entry{}, false
}

// Get returns the entry registered under exactly name.
func (c *Catalog) Get(name string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	return e, ok
}

// List returns entries whose backing file still exists, in
// registration order. Stale entries are hidden, not removed; see Prune.
func (c *Catalog) List() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Entry
	for _, name := range c.order {
		e := c.entries[name]
		if _, err := os.Stat(e.Path); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// Prune removes entries whose backing file is gone and persists the
// result. It returns the removed names.
func (c *Catalog) Prune() ([]string, error) {
	c.mu.Lock()
	var removed []string
	kept := c.order[:0]
	for _, name := range c.order {
		e := c.entries[name]
		if _, err := os.Stat(e.Path); err != nil {
			delete(c.entries, name)
			removed = append(removed, name)
			continue
		}
		kept = append(kept, name)
	}
	c.order = kept
	if len(removed) > 0 {
		c.dirty = true
	}
	c.mu.Unlock()

	if len(removed) == 0 {
		return nil, nil
	}
	if err := c.Save(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Len reports the number of registered entries, stale ones included.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
