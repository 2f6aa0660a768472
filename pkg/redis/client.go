package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultNamespace  = "ch"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
	lockPrefix        = "lock"
)

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
const compareAndDelete = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

// incrWithExpiry increments KEYS[1] and gives it a lifetime of ARGV[1]
// milliseconds whenever it has none, all in one atomic step.
const incrWithExpiry = `local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then redis.call("PEXPIRE", KEYS[1], ARGV[1]) end
return n`

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
	Eval(context.Context, string, []string, ...any) *redis.Cmd
}

// Client is the application's view of Redis: admin refresh sessions, auth rate
// limits, idempotent replays and cron job leases. Every key lives under one namespace.
type Client struct {
	store     cmdable
	raw       *redis.Client
	namespace string
}

// IdempotencyStore is what the idempotency middleware needs.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	client := &Client{store: raw, raw: raw, namespace: cfg.KeyPrefix}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"redis_db":  opts.DB,
			"namespace": client.ns(),
		}), "redis connection established")
	}
	return client, nil
}

// optionsFromConfig prefers the URL; explicit pool and timeout settings fill
// whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
		fillZero(&opts.DB, cfg.DB)
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	fillZero(&opts.PoolSize, cfg.PoolSize)
	fillZero(&opts.MinIdleConns, cfg.MinIdleConns)
	fillZero(&opts.DialTimeout, cfg.DialTimeout)
	fillZero(&opts.ReadTimeout, cfg.ReadTimeout)
	fillZero(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillZero[T comparable](dst *T, fallback T) {
	var zero T
	if *dst == zero {
		*dst = fallback
	}
}

// cmd returns the underlying commands, or errNotInitialized for a zero Client.
func (c *Client) cmd() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, errNotInitialized
	}
	return c.store, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	rc, err := c.cmd()
	if err != nil {
		return err
	}
	return rc.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	rc, err := c.cmd()
	if err != nil {
		return "", err
	}
	return rc.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	rc, err := c.cmd()
	if err != nil {
		return false, err
	}
	return rc.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	rc, err := c.cmd()
	if err != nil {
		return err
	}
	return rc.Del(ctx, keys...).Err()
}

// DelIfValue deletes key only while it still holds value. It reports whether
// the key was removed.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	rc, err := c.cmd()
	if err != nil {
		return false, err
	}
	removed, err := rc.Eval(ctx, compareAndDelete, []string{key}, value).Int64()
	return removed > 0, err
}

// IncrWithTTL increments a counter whose lifetime starts at the first hit. A
// counter found without a TTL gets one, so it can never outlive its window.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	rc, err := c.cmd()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return rc.Incr(ctx, key).Result()
	}
	ms := max(ttl.Milliseconds(), 1)
	return rc.Eval(ctx, incrWithExpiry, []string{key}, ms).Int64()
}

// FixedWindowAllow counts one hit against scope and reports whether it is within limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (allowed bool, count int64, err error) {
	if count, err = c.IncrWithTTL(ctx, c.RateLimitKey(scope), window); err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return c.buildKey(sessionPrefix, "access", accessID)
}

func (c *Client) LockKey(name string) string {
	return c.buildKey(lockPrefix, name)
}

func (c *Client) Ping(ctx context.Context) error {
	rc, err := c.cmd()
	if err != nil {
		return err
	}
	return rc.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) ns() string {
	if ns := strings.Trim(strings.TrimSpace(c.namespace), ":"); ns != "" {
		return ns
	}
	return defaultNamespace
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{c.ns()}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
