// Provider registry and model cache.
//
// Information Hiding:
// - Adapter lookup by name
// - Model list caching with per-entry expiry
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// modelCacheTTL is how long a discovered model list stays fresh.
const modelCacheTTL = 5 * time.Minute

// cacheEntry is an immutable snapshot of one provider's model list.
type cacheEntry struct {
	models  []Model
	expires time.Time
}

// Registry holds the configured adapters and caches model discovery.
// Every provider starts enabled; disabling is an administrative switch
// that hides a provider from discovery without touching its credentials.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	disabled map[string]bool
	cache    map[string]cacheEntry
	now      func() time.Time
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		disabled: make(map[string]bool),
		cache:    make(map[string]cacheEntry),
		now:      time.Now,
	}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// SetEnabled flips the administrative switch for a provider.
func (r *Registry) SetEnabled(name string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled {
		delete(r.disabled, name)
		return
	}
	r.disabled[name] = true
}

// Enabled reports whether the provider is administratively enabled.
// Unknown names report false.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, known := r.adapters[name]
	return known && !r.disabled[name]
}

// Get returns the adapter for the given provider name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return a, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered adapters in name order.
func (r *Registry) All() []Adapter {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapters := make([]Adapter, len(names))
	for i, name := range names {
		adapters[i] = r.adapters[name]
	}
	return adapters
}

// Models returns the provider's model list, served from cache while fresh.
// Sentinel connection-error entries are cached like any other result, so a
// flapping backend is not hammered on every call.
func (r *Registry) Models(ctx context.Context, provider string) ([]Model, error) {
	adapter, err := r.Get(provider)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	entry, ok := r.cache[provider]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expires) {
		return entry.models, nil
	}

	models := adapter.ListModels(ctx)

	r.mu.Lock()
	r.cache[provider] = cacheEntry{models: models, expires: r.now().Add(modelCacheTTL)}
	r.mu.Unlock()

	return models, nil
}

// DiscoverModels queries every enabled, configured provider. A provider
// that fails contributes its sentinel entry; one bad backend never hides
// the others.
func (r *Registry) DiscoverModels(ctx context.Context) map[string][]Model {
	result := make(map[string][]Model)
	for _, adapter := range r.All() {
		if !r.Enabled(adapter.Name()) || !adapter.IsConfigured() {
			continue
		}
		models, err := r.Models(ctx, adapter.Name())
		if err != nil {
			continue
		}
		result[adapter.Name()] = models
	}
	return result
}

// TestAll probes every registered provider and returns the status per name.
func (r *Registry) TestAll(ctx context.Context) map[string]ConnectionStatus {
	result := make(map[string]ConnectionStatus)
	for _, adapter := range r.All() {
		result[adapter.Name()] = adapter.TestConnection(ctx)
	}
	return result
}

// InvalidateCache drops any cached model lists, forcing rediscovery.
func (r *Registry) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cacheEntry)
}
