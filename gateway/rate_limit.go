// Copyright 2025 QueryGate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter enforces a per-caller requests-per-minute cap. With a
// Redis client it uses a sliding window shared across instances; without
// one it falls back to a per-process fixed window. Redis errors fail
// open so a broken limiter never blocks traffic.
type RateLimiter struct {
	client         *redis.Client
	limitPerMinute int

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter creates a limiter. redisURL may be empty, in which case
// only the in-memory window is used.
func NewRateLimiter(redisURL string, limitPerMinute int) (*RateLimiter, error) {
	rl := &RateLimiter{
		limitPerMinute: limitPerMinute,
		windows:        make(map[string]*rateWindow),
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		rl.client = client
	}

	return rl, nil
}

// Allow checks whether the caller identified by key may proceed. Returns
// an error describing the limit when it is exceeded.
func (rl *RateLimiter) Allow(ctx context.Context, key string) error {
	if rl.client == nil {
		return rl.allowMemory(key)
	}

	now := time.Now()
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := rl.client.Pipeline()

	// Sliding window: drop timestamps older than one minute, count what
	// remains, record this request.
	minScore := now.Add(-time.Minute).Unix()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", minScore))
	pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, &redis.Z{
		Score:  float64(now.Unix()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, redisKey, 2*time.Minute)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		// Fail open on Redis errors.
		log.Printf("Warning: Redis rate limit check failed for %s: %v (failing open)", key, err)
		return nil
	}

	count := cmds[1].(*redis.IntCmd).Val()
	if count >= int64(rl.limitPerMinute) {
		return fmt.Errorf("rate limit exceeded: %d requests/minute (limit: %d)", count+1, rl.limitPerMinute)
	}

	return nil
}

func (rl *RateLimiter) allowMemory(key string) error {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.resetTime) {
		rl.windows[key] = &rateWindow{count: 1, resetTime: now.Add(time.Minute)}
		return nil
	}

	w.count++
	if w.count > rl.limitPerMinute {
		return fmt.Errorf("rate limit exceeded: %d requests/minute (limit: %d)", w.count, rl.limitPerMinute)
	}
	return nil
}

// Close releases the Redis connection, if any.
func (rl *RateLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
