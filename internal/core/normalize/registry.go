package normalize

import (
	"fmt"

	"github.com/markdave123-py/Docura/internal/core"
)

// Registry maps a routing decision's provider to its normalizer. Providers
// are added by registering an implementation, never by branching pipeline
// code.
type Registry struct {
	backends map[core.Provider]core.DocumentNormalizer
}

func NewRegistry(backends ...core.DocumentNormalizer) *Registry {
	m := make(map[core.Provider]core.DocumentNormalizer, len(backends))
	for _, b := range backends {
		m[b.Provider()] = b
	}
	return &Registry{backends: m}
}

func (r *Registry) Get(p core.Provider) (core.DocumentNormalizer, error) {
	b, ok := r.backends[p]
	if !ok {
		return nil, fmt.Errorf("normalize: no backend registered for provider %q", p)
	}
	return b, nil
}
