//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/ports"
)

func startRedis(t *testing.T) *Redis {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, config.RedisConfig{Enabled: true, Host: host, Port: port.Int()})
	require.NoError(t, err)

	r := NewRedis(client)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := startRedis(t)

	require.NoError(t, r.Ping(ctx))
	require.NoError(t, r.Set(ctx, "fx:USD:EUR", rate{Value: 0.91}, time.Minute))

	var got rate
	require.NoError(t, r.Get(ctx, "fx:USD:EUR", &got))
	assert.Equal(t, 0.91, got.Value)

	require.NoError(t, r.Delete(ctx, "fx:USD:EUR"))
	assert.ErrorIs(t, r.Get(ctx, "fx:USD:EUR", &got), ports.ErrCacheMiss)
}

func TestRedis_SetNX(t *testing.T) {
	ctx := context.Background()
	r := startRedis(t)

	ok, err := r.SetNX(ctx, "assistant:sweep:leader", "node-a", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.SetNX(ctx, "assistant:sweep:leader", "node-b", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		ok, err := r.SetNX(ctx, "assistant:sweep:leader", "node-b", time.Second)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
}
