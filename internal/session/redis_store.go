package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore shares sessions between server instances. State is stored as
// JSON and the generation is a plain counter bumped with INCR.
type RedisStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisStore(client *redisv9.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func stateKey(id string) string { return keyPrefix + id }
func genKey(id string) string   { return keyPrefix + id + ":gen" }

func (s *RedisStore) Load(ctx context.Context, id string) (State, error) {
	val, err := s.client.Get(ctx, stateKey(id)).Result()
	if errors.Is(err, redisv9.Nil) {
		return State{}, ErrNoSession
	}
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(id), b, s.ttl).Err()
}

func (s *RedisStore) NextGeneration(ctx context.Context, id string) (int64, error) {
	var incr *redisv9.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		incr = pipe.Incr(ctx, genKey(id))
		pipe.Expire(ctx, genKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) Generation(ctx context.Context, id string) (int64, error) {
	n, err := s.client.Get(ctx, genKey(id)).Int64()
	if errors.Is(err, redisv9.Nil) {
		return 0, nil
	}
	return n, err
}
