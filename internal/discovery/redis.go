// internal/discovery/redis.go
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "registry:"

// RedisRegistry stores one key per instance and lets Redis expire leases.
type RedisRegistry struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *goredis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func instanceKey(service, id string) string {
	return keyPrefix + service + ":" + id
}

func (r *RedisRegistry) Register(ctx context.Context, inst Instance) (Instance, error) {
	inst.ExpiresAt = time.Now().Add(r.ttl).UTC()
	data, err := json.Marshal(inst)
	if err != nil {
		return Instance{}, fmt.Errorf("marshal instance: %w", err)
	}
	if err := r.client.Set(ctx, instanceKey(inst.Service, inst.ID), data, r.ttl).Err(); err != nil {
		return Instance{}, fmt.Errorf("redis set: %w", err)
	}
	return inst, nil
}

func (r *RedisRegistry) Deregister(ctx context.Context, service, id string) error {
	if err := r.client.Del(ctx, instanceKey(service, id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Instances(ctx context.Context, service string) ([]Instance, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, instanceKey(service, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return []Instance{}, nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make([]Instance, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		var inst Instance
		if err := json.Unmarshal([]byte(s), &inst); err != nil {
			return nil, fmt.Errorf("unmarshal instance: %w", err)
		}
		out = append(out, inst)
	}
	sortInstances(out)
	return out, nil
}

func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
