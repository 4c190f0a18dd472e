package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores completions keyed by a content hash so an exact
// repeat prompt skips the AI call entirely.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewResponseCache constructs a Redis-backed response cache.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl, prefix: "ai:response:"}
}

// PromptHash returns the cache key material for a prompt.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached completion text for a prompt, if present.
func (c *ResponseCache) Get(ctx context.Context, prompt string) (string, bool, error) {
	text, err := c.client.Get(ctx, c.prefix+PromptHash(prompt)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

// Set stores the completion text for a prompt with the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, prompt, text string) error {
	return c.client.Set(ctx, c.prefix+PromptHash(prompt), text, c.ttl).Err()
}
