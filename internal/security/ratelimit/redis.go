package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// allowScript prunes, checks and records in one round trip so concurrent
// replicas cannot overshoot the quota.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisLimiter is the shared sliding-window backend for multi-replica
// deployments. Each key holds a sorted set of attempt timestamps
// (milliseconds) that expires with the window, so idle keys evict
// themselves. Redis failures fail open: an unreachable limiter dampens
// nothing, but it must never take the site down with it.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	maxRequests int
	window      time.Duration
	log         zerolog.Logger
}

// NewRedis creates a Redis-backed limiter for one policy. Keys are stored
// under "ratelimit:<policy>:".
func NewRedis(client *redis.Client, policy Policy, log zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		prefix:      "ratelimit:" + policy.Name + ":",
		maxRequests: policy.MaxRequests,
		window:      policy.Window,
		log:         log,
	}
}

// NewRedisSet builds all six limiters on a shared client.
func NewRedisSet(client *redis.Client, log zerolog.Logger) *Set {
	return &Set{
		Login:        NewRedis(client, PolicyLogin, log),
		CaseTracking: NewRedis(client, PolicyCaseTracking, log),
		ContactForm:  NewRedis(client, PolicyContactForm, log),
		FileUpload:   NewRedis(client, PolicyFileUpload, log),
		AIGeneration: NewRedis(client, PolicyAIGeneration, log),
		API:          NewRedis(client, PolicyAPI, log),
	}
}

func (l *RedisLimiter) IsAllowed(key string) bool {
	ctx, cancel := l.opCtx()
	defer cancel()
	res, err := allowScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		time.Now().UnixMilli(),
		l.window.Milliseconds(),
		l.maxRequests,
		uuid.NewString(),
	).Int()
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing")
		return true
	}
	return res == 1
}

func (l *RedisLimiter) Reset(key string) {
	ctx, cancel := l.opCtx()
	defer cancel()
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limit reset failed")
	}
}

func (l *RedisLimiter) Clear() {
	ctx, cancel := l.opCtx()
	defer cancel()
	iter := l.client.Scan(ctx, 0, l.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			l.log.Warn().Err(err).Msg("rate limit clear failed")
			return
		}
	}
	if err := iter.Err(); err != nil {
		l.log.Warn().Err(err).Msg("rate limit clear scan failed")
	}
}

func (l *RedisLimiter) RemainingRequests(key string) int {
	ctx, cancel := l.opCtx()
	defer cancel()
	k := l.prefix + key
	windowStart := time.Now().Add(-l.window).UnixMilli()
	if err := l.client.ZRemRangeByScore(ctx, k, "0", strconv.FormatInt(windowStart, 10)).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limit prune failed")
		return l.maxRequests
	}
	count, err := l.client.ZCard(ctx, k).Result()
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limit count failed")
		return l.maxRequests
	}
	if int(count) >= l.maxRequests {
		return 0
	}
	return l.maxRequests - int(count)
}

func (l *RedisLimiter) ResetTime(key string) time.Duration {
	ctx, cancel := l.opCtx()
	defer cancel()
	oldest, err := l.client.ZRangeWithScores(ctx, l.prefix+key, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return 0
	}
	at := time.UnixMilli(int64(oldest[0].Score))
	remaining := time.Until(at.Add(l.window))
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *RedisLimiter) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}
