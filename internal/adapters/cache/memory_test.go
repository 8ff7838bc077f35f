package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/ports"
)

type rate struct {
	Value float64 `json:"value"`
}

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "fx:USD:EUR", rate{Value: 0.92}, time.Minute))

	var got rate
	require.NoError(t, m.Get(ctx, "fx:USD:EUR", &got))
	assert.Equal(t, 0.92, got.Value)

	now = now.Add(time.Minute)
	assert.ErrorIs(t, m.Get(ctx, "fx:USD:EUR", &got), ports.ErrCacheMiss)
}

func TestMemory_NoExpiration(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", "v", 0))

	var got string
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	require.NoError(t, m.Delete(ctx, "k"))
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ports.ErrCacheMiss)
}

func TestMemory_SetNX(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ok, err := m.SetNX(ctx, "lock", "a", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "lock", "b", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(5 * time.Second)
	ok, err = m.SetNX(ctx, "lock", "b", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	var holder string
	require.NoError(t, m.Get(ctx, "lock", &holder))
	assert.Equal(t, "b", holder)
}

func TestMemory_DecodeError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", "not a number", 0))

	var n int
	err := m.Get(ctx, "k", &n)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrCacheMiss)
}
