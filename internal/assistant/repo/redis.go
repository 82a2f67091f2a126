package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripdesk-core/server/internal/assistant/model"
	errx "github.com/tripdesk-core/server/internal/core/error"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// RedisThreadStore persists thread state in Redis: slots as a hash, history
// as a list, receipts and verification as JSON strings. Every write touches
// the TTL so an active thread never expires mid-conversation.
type RedisThreadStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisThreadStore(rdb redis.Cmdable, ttl time.Duration) *RedisThreadStore {
	return &RedisThreadStore{rdb: rdb, ttl: ttl}
}

func (r *RedisThreadStore) slotsKey(threadID string) string {
	return fmt.Sprintf("thread:%s:slots", threadID)
}

func (r *RedisThreadStore) messagesKey(threadID string) string {
	return fmt.Sprintf("thread:%s:messages", threadID)
}

func (r *RedisThreadStore) docKey(threadID, doc string) string {
	return fmt.Sprintf("thread:%s:doc:%s", threadID, doc)
}

func (r *RedisThreadStore) GetSlots(ctx context.Context, threadID string) (map[string]string, error) {
	key := r.slotsKey(threadID)
	slots, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]string{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load slots from redis")
		return nil, errx.WrapRedis(err)
	}
	if slots == nil {
		slots = map[string]string{}
	}
	return slots, nil
}

func (r *RedisThreadStore) SetSlots(ctx context.Context, threadID string, slots map[string]string) error {
	key := r.slotsKey(threadID)

	// Replace wholesale: deletes must not leave stale fields behind.
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(slots) > 0 {
		flat := make([]any, 0, len(slots)*2)
		for k, v := range slots {
			flat = append(flat, k, v)
		}
		pipe.HSet(ctx, key, flat...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write slots to redis")
		return errx.WrapRedis(err)
	}
	return r.touch(ctx, key)
}

func (r *RedisThreadStore) AppendMessage(ctx context.Context, threadID string, msg model.ThreadMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal thread message")
		return fmt.Errorf("marshal thread message: %w", err)
	}
	key := r.messagesKey(threadID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	return r.touch(ctx, key)
}

func (r *RedisThreadStore) Messages(ctx context.Context, threadID string) ([]model.ThreadMessage, error) {
	key := r.messagesKey(threadID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.ThreadMessage{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load thread history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]model.ThreadMessage, 0, len(rows))
	for i, s := range rows {
		var m model.ThreadMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Int("index", i).Msg("failed to unmarshal thread message")
			return nil, fmt.Errorf("unmarshal thread message at index %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (r *RedisThreadStore) SetJSON(ctx context.Context, threadID, doc string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s doc: %w", doc, err)
	}
	key := r.docKey(threadID, doc)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write doc to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisThreadStore) GetJSON(ctx context.Context, threadID, doc string, v any) (bool, error) {
	key := r.docKey(threadID, doc)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to read doc from redis")
		return false, errx.WrapRedis(err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("unmarshal %s doc: %w", doc, err)
	}
	return true, nil
}

func (r *RedisThreadStore) Clear(ctx context.Context, threadID string) error {
	keys := []string{
		r.slotsKey(threadID),
		r.messagesKey(threadID),
		r.docKey(threadID, model.DocReceipts),
		r.docKey(threadID, model.DocVerification),
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to clear thread from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// touch extends the TTL so active threads stay alive.
func (r *RedisThreadStore) touch(ctx context.Context, key string) error {
	if r.ttl <= 0 {
		return nil
	}
	if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
		return errx.WrapRedis(err)
	} else if !ok {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on thread key")
	}
	return nil
}

var _ model.ThreadStore = (*RedisThreadStore)(nil)
