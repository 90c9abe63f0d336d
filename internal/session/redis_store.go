package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps sessions in redis with the session TTL as key expiry.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "freshbasket:"}
}

func (s *RedisStore) credKey(sid string) string  { return s.prefix + "session:" + Key(sid) }
func (s *RedisStore) formsKey(sid string) string { return s.prefix + "drafts:" + Key(sid) }
func (s *RedisStore) draftKey(sid, form string) string {
	return s.prefix + "draft:" + Key(sid) + ":" + form
}

func (s *RedisStore) Get(ctx context.Context, sid string) (string, error) {
	v, err := s.rdb.Get(ctx, s.credKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCredential
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, sid, credential string) error {
	return s.rdb.Set(ctx, s.credKey(sid), credential, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	forms, err := s.rdb.SMembers(ctx, s.formsKey(sid)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := []string{s.credKey(sid), s.formsKey(sid)}
	for _, f := range forms {
		keys = append(keys, s.draftKey(sid, f))
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) LoadDraft(ctx context.Context, sid, form string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.draftKey(sid, form)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	return b, err
}

func (s *RedisStore) SaveDraft(ctx context.Context, sid, form string, body []byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.draftKey(sid, form), body, s.ttl)
		p.SAdd(ctx, s.formsKey(sid), form)
		p.Expire(ctx, s.formsKey(sid), s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) DeleteDraft(ctx context.Context, sid, form string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.draftKey(sid, form))
		p.SRem(ctx, s.formsKey(sid), form)
		return nil
	})
	return err
}
