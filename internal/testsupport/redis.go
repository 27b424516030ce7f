package testsupport

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"estimator/internal/adapters/config"
)

// NewRedisClient creates a redis client for integration tests.
// Keys written under prefix are removed when the test ends.
func NewRedisClient(t *testing.T, cfg config.RedisConfig, prefix string) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			_ = client.Del(ctx, iter.Val()).Err()
		}
		_ = client.Close()
	})

	return client
}
