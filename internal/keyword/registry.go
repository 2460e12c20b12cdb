package keyword

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/hydra/internal/mapping"
	"github.com/hyperjump/hydra/internal/models"
)

// rebuildSuffix names the directory a rebuilt index is filled in before it replaces
// the live one.
const rebuildSuffix = ".rebuild"

// Registry holds one index per declared collection.
//
// Readers run under View, which holds the registry read lock for the whole call, so an
// index is never closed while a search is using it. Writes go through Update, which
// also takes the collection's writer lock; a Rebuild holds that lock from Begin to
// Commit, so writes made during a rebuild land on the new index after the swap.
type Registry struct {
	mu          sync.RWMutex
	dir         string // empty for in-memory indices
	collections map[string]*mapping.Collection
	indices     map[string]KeywordIndex
	writers     map[string]*sync.Mutex
}

// OpenRegistry opens (or creates) the index of every collection under dir/<index name>.
func OpenRegistry(dir string, collections []mapping.Collection) (*Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return openRegistry(dir, collections)
}

// NewMemRegistry creates in-memory indices for the collections.
func NewMemRegistry(collections []mapping.Collection) (*Registry, error) {
	return openRegistry("", collections)
}

func openRegistry(dir string, collections []mapping.Collection) (*Registry, error) {
	r := &Registry{
		dir:         dir,
		collections: make(map[string]*mapping.Collection, len(collections)),
		indices:     make(map[string]KeywordIndex, len(collections)),
		writers:     make(map[string]*sync.Mutex, len(collections)),
	}
	for i := range collections {
		c := &collections[i]
		if _, dup := r.collections[c.Name]; dup {
			_ = r.Close()
			return nil, fmt.Errorf("collection %q declared twice", c.Name)
		}
		if dir != "" {
			// A rebuild that never committed.
			_ = os.RemoveAll(r.path(c) + rebuildSuffix)
		}
		idx, err := r.open(c, r.path(c))
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to open index for %q: %w", c.Name, err)
		}
		r.collections[c.Name] = c
		r.indices[c.Name] = idx
		r.writers[c.Name] = &sync.Mutex{}
	}
	return r, nil
}

func (r *Registry) path(c *mapping.Collection) string {
	if r.dir == "" {
		return ""
	}
	return filepath.Join(r.dir, c.IndexName())
}

func (r *Registry) open(c *mapping.Collection, path string) (KeywordIndex, error) {
	if path == "" {
		return NewMemBleveIndex(c)
	}
	return NewBleveIndex(path, c)
}

// Collection returns the declaration of a collection.
func (r *Registry) Collection(name string) (*mapping.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCollection, name)
	}
	return c, nil
}

// live returns the current index of name. Callers hold r.mu.
func (r *Registry) live(name string) (KeywordIndex, *mapping.Collection, error) {
	c, ok := r.collections[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", models.ErrUnknownCollection, name)
	}
	idx := r.indices[name]
	if idx == nil {
		return nil, nil, fmt.Errorf("index of %q is unavailable, reindex the collection", name)
	}
	return idx, c, nil
}

// View calls fn with the collection's index. The index stays open until fn returns;
// fn must not keep it.
func (r *Registry) View(name string, fn func(KeywordIndex, *mapping.Collection) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, c, err := r.live(name)
	if err != nil {
		return err
	}
	return fn(idx, c)
}

// Update calls fn with the collection's index for a write. Updates of one collection
// are serialized and wait for a running rebuild to commit.
func (r *Registry) Update(name string, fn func(KeywordIndex) error) error {
	w, err := r.writer(name)
	if err != nil {
		return err
	}
	w.Lock()
	defer w.Unlock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, _, err := r.live(name)
	if err != nil {
		return err
	}
	return fn(idx)
}

func (r *Registry) writer(name string) (*sync.Mutex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.writers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCollection, name)
	}
	return w, nil
}

// Collections returns the declared collection names in sorted order.
func (r *Registry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rebuild is an empty index being filled beside a collection's live index. Searches
// keep using the live index until Commit.
type Rebuild struct {
	r      *Registry
	name   string
	c      *mapping.Collection
	path   string // empty for in-memory indices
	index  KeywordIndex
	writer *sync.Mutex
	done   bool
}

// BeginRebuild opens a fresh index for the collection from its current declaration.
// Writes to the collection block until the rebuild is committed or aborted.
func (r *Registry) BeginRebuild(name string) (*Rebuild, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, err
	}
	w, err := r.writer(name)
	if err != nil {
		return nil, err
	}
	w.Lock()
	path := ""
	if r.dir != "" {
		path = r.path(c) + rebuildSuffix
		if err := os.RemoveAll(path); err != nil {
			w.Unlock()
			return nil, fmt.Errorf("failed to clear rebuild directory: %w", err)
		}
	}
	idx, err := r.open(c, path)
	if err != nil {
		w.Unlock()
		return nil, fmt.Errorf("failed to open rebuild index for %q: %w", name, err)
	}
	return &Rebuild{r: r, name: name, c: c, path: path, index: idx, writer: w}, nil
}

// Index is the index to fill.
func (b *Rebuild) Index() KeywordIndex { return b.index }

// Commit swaps the rebuilt index in and closes the old one once no search uses it.
func (b *Rebuild) Commit() error {
	if b.done {
		return fmt.Errorf("rebuild of %q already finished", b.name)
	}
	b.done = true
	defer b.writer.Unlock()

	r := b.r
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.indices[b.name]
	if b.path == "" {
		r.indices[b.name] = b.index
		if old != nil {
			_ = old.Close()
		}
		return nil
	}

	// On disk the new index moves into the live path, which needs both closed.
	if err := b.index.Close(); err != nil {
		_ = os.RemoveAll(b.path)
		return fmt.Errorf("failed to close rebuilt index: %w", err)
	}
	if old != nil {
		_ = old.Close()
	}
	r.indices[b.name] = nil
	livePath := r.path(b.c)
	if err := os.RemoveAll(livePath); err != nil {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(b.path, livePath); err != nil {
		return fmt.Errorf("failed to move rebuilt index: %w", err)
	}
	idx, err := r.open(b.c, livePath)
	if err != nil {
		return fmt.Errorf("failed to reopen rebuilt index: %w", err)
	}
	r.indices[b.name] = idx
	return nil
}

// Abort discards the rebuilt index; the live index is untouched.
func (b *Rebuild) Abort() error {
	if b.done {
		return nil
	}
	b.done = true
	defer b.writer.Unlock()
	err := b.index.Close()
	if b.path != "" {
		if rmErr := os.RemoveAll(b.path); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Close closes every index.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for name, idx := range r.indices {
		if idx == nil {
			continue
		}
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close index %q: %w", name, err)
		}
	}
	r.indices = map[string]KeywordIndex{}
	return firstErr
}
