package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clhstestify/online-judge/internal/config"
)

// ConnectRedis builds the scoreboard cache client. An empty URL disables
// caching; callers receive a nil client and rebuild scoreboards per request.
func ConnectRedis(cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JUDGE_REDIS_URL: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}
