// Package router binds application modules to ports.
package router

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// Router maps ports to the modules that own them. A port is bound once.
type Router struct {
	mtx    sync.RWMutex
	routes map[host.PortID]exported.Module
	sealed bool
}

var _ exported.Router = (*Router)(nil)

// New returns an empty, unsealed Router.
func New() *Router {
	return &Router{routes: make(map[host.PortID]exported.Module)}
}

// AddRoute binds module to portID. It fails if the router is sealed, the
// port identifier is invalid or the port is already bound.
func (r *Router) AddRoute(portID host.PortID, module exported.Module) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.sealed {
		return fmt.Errorf("router sealed, cannot bind port %s", portID)
	}
	if err := portID.Validate(); err != nil {
		return err
	}
	if module == nil {
		return fmt.Errorf("nil module for port %s", portID)
	}
	if _, ok := r.routes[portID]; ok {
		return fmt.Errorf("port %s is already bound", portID)
	}
	r.routes[portID] = module
	return nil
}

// Seal prevents further routes from being added.
func (r *Router) Seal() {
	r.mtx.Lock()
	r.sealed = true
	r.mtx.Unlock()
}

// Sealed reports whether Seal was called.
func (r *Router) Sealed() bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.sealed
}

// Route implements exported.Router.
func (r *Router) Route(portID host.PortID) (exported.Module, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	module, ok := r.routes[portID]
	return module, ok
}

// Ports returns the bound ports in sorted order.
func (r *Router) Ports() []host.PortID {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	ports := make([]host.PortID, 0, len(r.routes))
	for portID := range r.routes {
		ports = append(ports, portID)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}
