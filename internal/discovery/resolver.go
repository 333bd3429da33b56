// internal/discovery/resolver.go
package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// StaticResolver resolves services from a fixed list of base URLs,
// rotating through them round robin.
type StaticResolver struct {
	urls map[string][]string
	next map[string]*atomic.Uint64
}

func NewStaticResolver(urls map[string][]string) *StaticResolver {
	r := &StaticResolver{
		urls: make(map[string][]string, len(urls)),
		next: make(map[string]*atomic.Uint64, len(urls)),
	}
	for service, list := range urls {
		if len(list) == 0 {
			continue
		}
		r.urls[service] = append([]string(nil), list...)
		r.next[service] = new(atomic.Uint64)
	}
	return r
}

func (r *StaticResolver) Resolve(ctx context.Context, service string) (string, error) {
	list, ok := r.urls[service]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoInstances, service)
	}
	n := r.next[service].Add(1) - 1
	return list[n%uint64(len(list))], nil
}

// instanceLister is satisfied by Registry and by the registry HTTP Client.
type instanceLister interface {
	Instances(ctx context.Context, service string) ([]Instance, error)
}

// RegistryResolver resolves services through the registry, caching each
// instance list for a short period.
type RegistryResolver struct {
	source   instanceLister
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedList
	next  atomic.Uint64
}

type cachedList struct {
	instances []Instance
	fetched   time.Time
}

func NewRegistryResolver(source instanceLister, cacheTTL time.Duration) *RegistryResolver {
	return &RegistryResolver{
		source:   source,
		cacheTTL: cacheTTL,
		now:      time.Now,
		cache:    make(map[string]cachedList),
	}
}

func (r *RegistryResolver) Resolve(ctx context.Context, service string) (string, error) {
	instances, err := r.instances(ctx, service)
	if err != nil {
		return "", err
	}
	if len(instances) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoInstances, service)
	}
	n := r.next.Add(1) - 1
	return instances[n%uint64(len(instances))].URL, nil
}

func (r *RegistryResolver) instances(ctx context.Context, service string) ([]Instance, error) {
	r.mu.Lock()
	cached, ok := r.cache[service]
	r.mu.Unlock()
	if ok && r.now().Sub(cached.fetched) < r.cacheTTL {
		return cached.instances, nil
	}

	instances, err := r.source.Instances(ctx, service)
	if err != nil {
		return nil, fmt.Errorf("list %s instances: %w", service, err)
	}

	r.mu.Lock()
	r.cache[service] = cachedList{instances: instances, fetched: r.now()}
	r.mu.Unlock()
	return instances, nil
}
