package pos

import (
	"github.com/openbooks/backend/internal/domain/pos"
)

// Registry is a static provider registry keyed by provider code
type Registry struct {
	providers map[pos.ProviderCode]pos.Provider
}

// NewRegistry creates a registry over the given provider adapters
func NewRegistry(providers ...pos.Provider) *Registry {
	m := make(map[pos.ProviderCode]pos.Provider, len(providers))
	for _, p := range providers {
		m[p.ProviderCode()] = p
	}
	return &Registry{providers: m}
}

// GetProvider returns the adapter for the specified code
func (r *Registry) GetProvider(code pos.ProviderCode) (pos.Provider, error) {
	if p, ok := r.providers[code]; ok {
		return p, nil
	}
	return nil, pos.ErrProviderNotConfigured
}

// ListProviders returns all registered provider adapters
func (r *Registry) ListProviders() []pos.Provider {
	out := make([]pos.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// Ensure Registry implements pos.ProviderRegistry
var _ pos.ProviderRegistry = (*Registry)(nil)
