package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the raw go-redis client with the keyed-TTL-store contract
// the device state layer is built on: hash/list/set records with a TTL
// that is refreshed on every successful write, never on reads.
type Client struct {
	rdb *redis.Client
}

func New(url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

// NewFromClient wires an existing connection (tests use miniredis here).
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) GetRawClient() *redis.Client {
	return c.rdb
}

// SetHash writes fields into a hash record and refreshes its TTL.
func (c *Client) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	pipe := c.rdb.TxPipeline()
	args := make([]any, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}
	pipe.HSet(ctx, key, args...)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetHash reads a full hash record. A missing key yields an empty map,
// not an error.
func (c *Client) GetHash(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

// HashExists reports whether a hash record is present (not yet expired).
func (c *Client) HashExists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteHashField removes a single field from a hash record.
func (c *Client) DeleteHashField(ctx context.Context, key, field string) error {
	return c.rdb.HDel(ctx, key, field).Err()
}

// AppendToList pushes a value to the head of a bounded list, truncates
// to maxLen and refreshes the TTL.
func (c *Client) AppendToList(ctx context.Context, key, value string, maxLen int, ttl time.Duration) error {
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, value)
	pipe.LTrim(ctx, key, 0, int64(maxLen-1))
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// ReadList returns up to limit entries, head (most recent) first.
func (c *Client) ReadList(ctx context.Context, key string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	return c.rdb.LRange(ctx, key, 0, int64(limit-1)).Result()
}

// AddToSet adds members to a set record and refreshes its TTL.
func (c *Client) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	pipe := c.rdb.TxPipeline()
	pipe.SAdd(ctx, key, args...)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Client) ReadSet(ctx context.Context, key string) ([]string, error) {
	return c.rdb.SMembers(ctx, key).Result()
}

func (c *Client) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.rdb.SRem(ctx, key, args...).Err()
}

// DeleteKeys removes keys and returns how many existed. Deleting a
// missing key is a no-op success.
func (c *Client) DeleteKeys(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return c.rdb.Del(ctx, keys...).Result()
}

// ScanKeys enumerates keys matching a glob pattern. Used by bulk
// archival/cleanup only; request paths never scan.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Eval runs a Lua script. The device store uses it where a
// read-modify-write must be atomic on the redis side.
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...any) (any, error) {
	return c.rdb.Eval(ctx, script, keys, args...).Result()
}
