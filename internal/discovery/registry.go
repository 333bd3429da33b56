// internal/discovery/registry.go
package discovery

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNoInstances = errors.New("no instances available")

// Instance is one running copy of a service.
type Instance struct {
	Service   string    `json:"service"`
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Registry tracks live service instances. Register doubles as heartbeat:
// each call extends the instance lease by the registry TTL.
type Registry interface {
	Register(ctx context.Context, inst Instance) (Instance, error)
	Deregister(ctx context.Context, service, id string) error
	Instances(ctx context.Context, service string) ([]Instance, error)
	Ping(ctx context.Context) error
}

// MemoryRegistry keeps leases in process memory.
type MemoryRegistry struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	instances map[string]map[string]Instance
}

func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		ttl:       ttl,
		now:       time.Now,
		instances: make(map[string]map[string]Instance),
	}
}

func (m *MemoryRegistry) Register(ctx context.Context, inst Instance) (Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst.ExpiresAt = m.now().Add(m.ttl).UTC()
	byID, ok := m.instances[inst.Service]
	if !ok {
		byID = make(map[string]Instance)
		m.instances[inst.Service] = byID
	}
	byID[inst.ID] = inst
	return inst, nil
}

func (m *MemoryRegistry) Deregister(ctx context.Context, service, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.instances[service], id)
	return nil
}

func (m *MemoryRegistry) Instances(ctx context.Context, service string) ([]Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]Instance, 0, len(m.instances[service]))
	for id, inst := range m.instances[service] {
		if !now.Before(inst.ExpiresAt) {
			delete(m.instances[service], id)
			continue
		}
		out = append(out, inst)
	}
	sortInstances(out)
	return out, nil
}

func (m *MemoryRegistry) Ping(ctx context.Context) error { return nil }

func sortInstances(in []Instance) {
	sort.Slice(in, func(i, j int) bool { return in[i].ID < in[j].ID })
}
