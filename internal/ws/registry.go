package ws

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	registryPrefix = "game_machine:"
	registryTTL    = 2 * time.Hour
)

// Registry maps game ids to the machine that owns them, so a client that
// lands on the wrong instance can be redirected. Backed by redis; every
// instance of the fleet shares it.
type Registry struct {
	rdb       *redis.Client
	machineID string
}

func NewRegistry(rdb *redis.Client, machineID string) *Registry {
	return &Registry{rdb: rdb, machineID: machineID}
}

// Claim records this machine as the owner of gameID.
func (r *Registry) Claim(gameID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.rdb.Set(ctx, registryPrefix+gameID, r.machineID, registryTTL).Err()
}

// Lookup returns the owning machine id, or "" when unknown.
func (r *Registry) Lookup(gameID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	machine, err := r.rdb.Get(ctx, registryPrefix+gameID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return machine, nil
}

// Release drops the ownership record. Only the owner's record is removed;
// a claim by another machine is left alone.
func (r *Registry) Release(gameID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	machine, err := r.rdb.Get(ctx, registryPrefix+gameID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if machine != r.machineID {
		return nil
	}
	return r.rdb.Del(ctx, registryPrefix+gameID).Err()
}
