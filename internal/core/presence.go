package core

import "sync"

// Profile is the per-connection identity mirrored into the presence set.
type Profile struct {
	UserID   string
	Username string
	Avatar   string
}

// PresenceRegistry tracks which connections are online and their latest
// profile, independent of room membership. Snapshot order follows
// registration order.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]Profile
	order   []string
}

// NewPresenceRegistry constructs an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{entries: make(map[string]Profile)}
}

// Register adds or overwrites the entry for connID. Registering the same
// connection twice keeps a single entry.
func (p *PresenceRegistry) Register(connID string, profile Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[connID]; !ok {
		p.order = append(p.order, connID)
	}
	p.entries[connID] = profile
}

// Update overwrites the profile for a registered connection. Unknown
// connections are ignored; entries are only created by Register.
func (p *PresenceRegistry) Update(connID string, profile Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[connID]; !ok {
		return
	}
	p.entries[connID] = profile
}

// Unregister removes the entry for connID, if any.
func (p *PresenceRegistry) Unregister(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[connID]; !ok {
		return
	}
	delete(p.entries, connID)
	for i, id := range p.order {
		if id == connID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Get returns the profile for connID.
func (p *PresenceRegistry) Get(connID string) (Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	profile, ok := p.entries[connID]
	return profile, ok
}

// Snapshot returns all online profiles in registration order.
func (p *PresenceRegistry) Snapshot() []Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Profile, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.entries[id])
	}
	return out
}
