package redisslot_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisslot "github.com/plancheck/plancheck/internal/kvslot/redis"
	"github.com/stretchr/testify/require"
)

func createSlot(t *testing.T) *redisslot.Slot {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	s := redisslot.New(redisslot.Config{Host: mr.Host(), Port: port})
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() {
		s.Close(context.Background())
	})
	return s
}

func TestRedisSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("get absent key", func(t *testing.T) {
		s := createSlot(t)

		_, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		s := createSlot(t)

		require.NoError(t, s.Set(ctx, "key", `{"version":1}`))

		value, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `{"version":1}`, value)
	})

	t.Run("delete", func(t *testing.T) {
		s := createSlot(t)

		require.NoError(t, s.Set(ctx, "key", "value"))
		require.NoError(t, s.Delete(ctx, "key"))

		_, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("connect failure", func(t *testing.T) {
		s := redisslot.New(redisslot.Config{Host: "127.0.0.1", Port: 1})
		require.ErrorIs(t, s.Connect(ctx), redisslot.ErrConnectionFailed)
	})
}
