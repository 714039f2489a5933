package pricefeed

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a thread-safe set of feeds keyed by ID.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]Feed
}

func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]Feed)}
}

// Register adds f. Registering an ID twice replaces the earlier feed.
func (r *Registry) Register(f Feed) error {
	if f == nil {
		return fmt.Errorf("feed cannot be nil")
	}
	id := f.ID()
	if id == "" {
		return fmt.Errorf("feed id cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[id] = f
	return nil
}

func (r *Registry) Get(id string) (Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.feeds[id]
	return f, ok
}

// IDs returns the registered feed IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.feeds))
	for id := range r.feeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Feeds returns the registered feeds ordered by ID.
func (r *Registry) Feeds() []Feed {
	ids := r.IDs()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Feed, 0, len(ids))
	for _, id := range ids {
		if f, ok := r.feeds[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Supporting returns the feeds able to translate pair.
func (r *Registry) Supporting(pair AssetPair) []Feed {
	var out []Feed
	for _, f := range r.Feeds() {
		if _, err := f.TranslateAssetPair(pair); err == nil {
			out = append(out, f)
		}
	}
	return out
}
