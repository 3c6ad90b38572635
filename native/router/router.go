package router

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotAdmin         = errors.New("router: caller is not admin")
	ErrTLDAlreadyInUse  = errors.New("router: tld already in use")
	ErrUnknownTLD       = errors.New("router: unknown tld")
	ErrInvalidRegistry  = errors.New("router: invalid registry")
	ErrMalformedAddress = errors.New("router: malformed domain")
)

// Resolver is the read-only view of a registry consumed by the router.
type Resolver interface {
	GetAddress(name string) ([20]byte, error)
	GetPrimaryName(addr [20]byte) (string, error)
}

// Router maps TLDs to their registry.
type Router struct {
	mu     sync.RWMutex
	admin  [20]byte
	routes map[string]Resolver
}

// New returns an empty router administered by admin.
func New(admin [20]byte) *Router {
	return &Router{admin: admin, routes: make(map[string]Resolver)}
}

func normalizeTLD(tld string) string {
	return strings.ToLower(strings.TrimSpace(tld))
}

// AddRegistry routes tld to registry. A TLD can be routed only once.
func (r *Router) AddRegistry(caller [20]byte, tld string, registry Resolver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.admin {
		return ErrNotAdmin
	}
	key := normalizeTLD(tld)
	if key == "" || registry == nil {
		return ErrInvalidRegistry
	}
	if _, exists := r.routes[key]; exists {
		return ErrTLDAlreadyInUse
	}
	r.routes[key] = registry
	return nil
}

// GetRegistry returns the registry routed for tld.
func (r *Router) GetRegistry(tld string) (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registry, ok := r.routes[normalizeTLD(tld)]
	return registry, ok
}

// TLDs lists the routed TLDs in lexical order.
func (r *Router) TLDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.routes))
	for tld := range r.routes {
		out = append(out, tld)
	}
	sort.Strings(out)
	return out
}

// Admin returns the current administrator.
func (r *Router) Admin() [20]byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin
}

// SetAdmin hands administration to admin.
func (r *Router) SetAdmin(caller, admin [20]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.admin {
		return ErrNotAdmin
	}
	r.admin = admin
	return nil
}

// SplitDomain splits "name.tld" at the last dot.
func SplitDomain(domain string) (name, tld string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(domain), ".")
	idx := strings.LastIndex(trimmed, ".")
	if idx <= 0 || idx == len(trimmed)-1 {
		return "", "", ErrMalformedAddress
	}
	return trimmed[:idx], normalizeTLD(trimmed[idx+1:]), nil
}

// GetAddress resolves a fully qualified "name.tld" domain.
func (r *Router) GetAddress(domain string) ([20]byte, error) {
	name, tld, err := SplitDomain(domain)
	if err != nil {
		return [20]byte{}, err
	}
	registry, ok := r.GetRegistry(tld)
	if !ok {
		return [20]byte{}, ErrUnknownTLD
	}
	return registry.GetAddress(name)
}

// GetPrimaryName returns the primary domain of addr under tld as "name.tld".
func (r *Router) GetPrimaryName(tld string, addr [20]byte) (string, error) {
	registry, ok := r.GetRegistry(tld)
	if !ok {
		return "", ErrUnknownTLD
	}
	name, err := registry.GetPrimaryName(addr)
	if err != nil {
		return "", err
	}
	return name + "." + normalizeTLD(tld), nil
}
