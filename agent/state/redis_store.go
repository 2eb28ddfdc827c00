package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RedisConfig struct {
	URL          string `split_words:"true" required:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// New dials the server and pings it once.
func (c *RedisConfig) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.ReadTimeout = time.Duration(c.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(c.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(c.DialTimeout) * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps Preferences in a plain Redis server.
type RedisStore struct {
	rdb       redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

var _ PreferenceStore = (*RedisStore)(nil)

func NewRedisStore(rdb redis.Cmdable, opts ...StoreOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb, keyPrefix: o.keyPrefix, ttl: o.ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, deviceID string) (Preferences, error) {
	key, err := prefsKey(s.keyPrefix, deviceID)
	if err != nil {
		return Preferences{}, err
	}

	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Preferences{}, ErrPreferencesNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("failed to load preferences from redis")
		return Preferences{}, fmt.Errorf("redis get: %w", err)
	}
	return decodePreferences(raw)
}

func (s *RedisStore) Save(ctx context.Context, deviceID string, prefs Preferences) error {
	key, err := prefsKey(s.keyPrefix, deviceID)
	if err != nil {
		return err
	}
	if prefs.Empty() {
		return s.Delete(ctx, deviceID)
	}

	payload, err := encodePreferences(prefs)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to save preferences to redis")
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, deviceID string) error {
	key, err := prefsKey(s.keyPrefix, deviceID)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// NopStore remembers nothing; used when no backend is configured.
type NopStore struct{}

var _ PreferenceStore = NopStore{}

func (NopStore) Load(context.Context, string) (Preferences, error) {
	return Preferences{}, ErrPreferencesNotFound
}

func (NopStore) Save(context.Context, string, Preferences) error { return nil }

func (NopStore) Delete(context.Context, string) error { return nil }
