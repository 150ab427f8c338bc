// Package redisstore is the redis-backed credential store, for setups
// where several tools on one host share the same key.
package redisstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const credentialKey = "faqchat:api_key"

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Load(ctx context.Context) (string, bool, error) {
	v, err := s.rdb.Get(ctx, credentialKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Save(ctx context.Context, value string) error {
	// no TTL: the credential lives until cleared
	return s.rdb.Set(ctx, credentialKey, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context) error {
	return s.rdb.Del(ctx, credentialKey).Err()
}

func (s *Store) Close() error { return s.rdb.Close() }
