package redisslot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var ErrConnectionFailed = errors.New("failed to connect")

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type Slot struct {
	client *redis.Client
}

func New(config Config) *Slot {
	return &Slot{
		client: redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Password: config.Password,
			DB:       config.DB,
		}),
	}
}

func (s *Slot) Connect(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

func (s *Slot) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Slot) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *Slot) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *Slot) Close(_ context.Context) error {
	return s.client.Close()
}
