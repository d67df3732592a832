// Package apiroutes records the routes a router exposes so they can be listed
// by the discovery endpoint.
package apiroutes

import (
	"sort"
	"sync"
)

// APIRoute defines the structure for an API route entry.
type APIRoute struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	routes []APIRoute
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{routes: make([]APIRoute, 0)}
}

// Register adds a route to the registry.
func (r *Registry) Register(path, method, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, APIRoute{
		Path:        path,
		Method:      method,
		Description: description,
	})
}

// Get returns a copy of the registered routes ordered by path, then method.
func (r *Registry) Get() []APIRoute {
	r.mu.RLock()
	routes := make([]APIRoute, len(r.routes))
	copy(routes, r.routes)
	r.mu.RUnlock()

	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}
