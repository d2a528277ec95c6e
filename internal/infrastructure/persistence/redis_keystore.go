package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// DefaultRedisPrefix namespaces key entries in a shared redis.
const DefaultRedisPrefix = "gasp-e2e:keys:"

// RedisKeyStore implements ports.KeyStore on redis strings.
type RedisKeyStore struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyStore wraps an existing client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisKeyStore(client *redis.Client, prefix string) *RedisKeyStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisKeyStore{client: client, prefix: prefix}
}

// DialRedisKeyStore connects to the redis URL, e.g.
// redis://:password@host:6379/0, and checks the connection.
func DialRedisKeyStore(ctx context.Context, url string) (*RedisKeyStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisKeyStore(client, ""), nil
}

func (s *RedisKeyStore) key(address chain.Address) string {
	return s.prefix + string(address)
}

func (s *RedisKeyStore) Save(ctx context.Context, address chain.Address, keyJSON []byte) error {
	if len(keyJSON) == 0 {
		return fmt.Errorf("key json is empty")
	}
	if err := s.client.Set(ctx, s.key(address), keyJSON, 0).Err(); err != nil {
		return &StoreError{Op: "save", Location: s.key(address), Err: err}
	}
	return nil
}

func (s *RedisKeyStore) Load(ctx context.Context, address chain.Address) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &NotFoundError{Key: s.key(address)}
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Location: s.key(address), Err: err}
	}
	return data, nil
}

// List scans the prefix; it does not block redis like KEYS would.
func (s *RedisKeyStore) List(ctx context.Context) ([]chain.Address, error) {
	var out []chain.Address
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		addr, err := chain.ParseAddress(strings.TrimPrefix(iter.Val(), s.prefix))
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	if err := iter.Err(); err != nil {
		return nil, &StoreError{Op: "list", Location: s.prefix + "*", Err: err}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *RedisKeyStore) Delete(ctx context.Context, address chain.Address) error {
	n, err := s.client.Del(ctx, s.key(address)).Result()
	if err != nil {
		return &StoreError{Op: "delete", Location: s.key(address), Err: err}
	}
	if n == 0 {
		return &NotFoundError{Key: s.key(address)}
	}
	return nil
}

// Close closes the redis client.
func (s *RedisKeyStore) Close() error {
	return s.client.Close()
}

var _ ports.KeyStore = (*RedisKeyStore)(nil)
