package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/speaker-match-api/pkg/config"
)

// Cache key namespaces. Pattern invalidation uses the trailing "*".
const (
	SpeakersPrefix   = "speakers:"
	IndustriesPrefix = "industries:"
	RequestsPrefix   = "requests:"
)

// Key joins a namespace prefix and parts with ":".
func Key(prefix string, parts ...string) string {
	key := prefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

// GenerationKey names the counter versioning a namespace. It sits outside the namespace so pattern
// invalidation never resets it.
func GenerationKey(prefix string) string {
	return "generation:" + strings.TrimSuffix(prefix, ":")
}

// Pattern returns the invalidation pattern for a prefix.
func Pattern(prefix string) string {
	return prefix + "*"
}

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
