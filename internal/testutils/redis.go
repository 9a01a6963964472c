package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisTestURLEnv points integration tests at an existing Redis instead of a
// container. The selected database is flushed before and after each test.
const RedisTestURLEnv = "REDIS_TEST_URL"

// CreateRedisClient returns a client for an empty Redis database. It uses
// REDIS_TEST_URL when set and otherwise starts a throwaway container. The
// test is skipped when neither is available.
func CreateRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	if url := os.Getenv(RedisTestURLEnv); url != "" {
		return externalRedisClient(t, url)
	}
	return containerRedisClient(t)
}

func externalRedisClient(t *testing.T, url string) redis.UniversalClient {
	t.Helper()

	opts, err := redis.ParseURL(url)
	require.NoError(t, err, "invalid %s", RedisTestURLEnv)

	client := redis.NewClient(opts)
	if err := waitForRedis(client, 5*time.Second); err != nil {
		_ = client.Close()
		t.Skipf("Redis at %s not available: %v", opts.Addr, err)
	}

	require.NoError(t, client.FlushDB(context.Background()).Err(), "failed to flush test database")
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}

func containerRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "failed to resolve Redis container endpoint")

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		_ = client.Close()
	})

	require.NoError(t, waitForRedis(client, 10*time.Second), "Redis container did not become ready")
	return client
}

// waitForRedis pings until Redis answers or timeout passes
func waitForRedis(client *redis.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("redis not ready after %v: %w", timeout, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
