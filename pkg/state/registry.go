package state

import (
	"sync"

	proxylist "github.com/goliatone/go-proxylist"
)

// Registry maps global ids to live proxies. It satisfies proxylist.Locator.
type Registry struct {
	mu      sync.RWMutex
	proxies map[proxylist.GlobalID]proxylist.Proxy
}

func NewRegistry() *Registry {
	return &Registry{proxies: map[proxylist.GlobalID]proxylist.Proxy{}}
}

// Register records every non-nil proxy under its global id, replacing any
// previous proxy with the same id.
func (r *Registry) Register(proxies ...proxylist.Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range proxies {
		if p == nil {
			continue
		}
		r.proxies[p.GlobalID()] = p
	}
}

// Unregister forgets id. It reports whether id was registered.
func (r *Registry) Unregister(id proxylist.GlobalID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.proxies[id]; !ok {
		return false
	}
	delete(r.proxies, id)
	return true
}

// LocateProxy implements proxylist.Locator.
func (r *Registry) LocateProxy(id proxylist.GlobalID) (proxylist.Proxy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.proxies[id]
	return p, ok
}
