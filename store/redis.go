package store

import (
	"context"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisStore keeps each envelope under <prefix>:save:<name> and the set of
// saved names under <prefix>:saves.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":save:" + name
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":saves"
}

func (s *RedisStore) Save(ctx context.Context, env Envelope) error {
	if err := ValidateName(env.Name); err != nil {
		return err
	}
	data, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(env.Name), data, 0)
		pipe.SAdd(ctx, s.indexKey(), env.Name)
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "save %q", env.Name)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (Envelope, error) {
	if err := ValidateName(name); err != nil {
		return Envelope{}, err
	}
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Envelope{}, eris.Wrapf(ErrSnapshotNotFound, "%q", name)
	}
	if err != nil {
		return Envelope{}, eris.Wrapf(err, "load %q", name)
	}
	return decodeEnvelope(data)
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, eris.Wrap(err, "list saves")
	}
	slices.Sort(names)
	return names, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.key(name))
		pipe.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "delete %q", name)
	}
	if deleted.Val() == 0 {
		return eris.Wrapf(ErrSnapshotNotFound, "%q", name)
	}
	return nil
}
