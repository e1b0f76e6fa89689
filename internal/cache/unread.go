package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// versionTTL outlives any count by far; it only has to survive one
// read-count-write round trip.
const versionTTL = 24 * time.Hour

// setIfVersion writes the count only while the version key still holds the
// value the reader saw. A missing version key reads as "0".
var setIfVersion = redis.NewScript(`
local v = redis.call("GET", KEYS[2]) or "0"
if v ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1`)

// UnreadCounts keeps per-user unread totals in Redis for a short TTL. It
// satisfies services.UnreadCache.
type UnreadCounts struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUnreadCounts(client *redis.Client, ttl time.Duration) *UnreadCounts {
	return &UnreadCounts{client: client, ttl: ttl}
}

func unreadKey(userID uuid.UUID) string {
	return "unread:" + userID.String()
}

func versionKey(userID uuid.UUID) string {
	return "unread:" + userID.String() + ":v"
}

func (c *UnreadCounts) Get(ctx context.Context, userID uuid.UUID) (int64, bool, int64, error) {
	vals, err := c.client.MGet(ctx, unreadKey(userID), versionKey(userID)).Result()
	if err != nil {
		return 0, false, 0, err
	}

	version := parseInt(vals[1])
	raw, ok := vals[0].(string)
	if !ok {
		return 0, false, version, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// garbage in the slot; treat as a miss and let Set overwrite it
		return 0, false, version, nil
	}
	return n, true, version, nil
}

func (c *UnreadCounts) Set(ctx context.Context, userID uuid.UUID, count, version int64) error {
	return setIfVersion.Run(ctx, c.client,
		[]string{unreadKey(userID), versionKey(userID)},
		count, version, c.ttl.Milliseconds(),
	).Err()
}

// Invalidate drops the cached count and bumps the version so in-flight
// readers cannot write back what they computed before this call.
func (c *UnreadCounts) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID))
		pipe.Expire(ctx, versionKey(userID), versionTTL)
		pipe.Del(ctx, unreadKey(userID))
		return nil
	})
	return err
}

func parseInt(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
