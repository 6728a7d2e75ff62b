package publisher

import (
	"fmt"
	"sort"
)

// Registry resolves a platform identifier to its publisher. An unknown
// identifier is a misconfiguration, not a transient failure.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher)}
	for _, p := range publishers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Publisher) {
	r.publishers[p.PlatformID()] = p
}

func (r *Registry) Get(platform string) (Publisher, error) {
	p, ok := r.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("no publisher registered for platform %q", platform)
	}
	return p, nil
}

func (r *Registry) Platforms() []string {
	platforms := make([]string, 0, len(r.publishers))
	for platform := range r.publishers {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
