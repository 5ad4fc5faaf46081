// Package session keeps per-session conversation history in Redis so callers
// that do not send conversationHistory still get context resolution.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/models"
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultMaxTurns = 20
	DefaultPrefix   = "conversation"
)

// History loads and appends conversation turns, oldest first.
type History interface {
	Load(ctx context.Context, sessionID string) ([]models.ConversationTurn, error)
	Append(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error
}

type Options struct {
	KeyPrefix string
	TTL       time.Duration
	MaxTurns  int
}

// RedisHistory stores each session as a JSON list trimmed to MaxTurns. The TTL
// is refreshed on every append.
type RedisHistory struct {
	client redis.Cmdable
	opts   Options
}

func NewRedisHistory(client redis.Cmdable, opts Options) *RedisHistory {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	return &RedisHistory{client: client, opts: opts}
}

func (h *RedisHistory) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", h.opts.KeyPrefix, sessionID)
}

func (h *RedisHistory) Load(ctx context.Context, sessionID string) ([]models.ConversationTurn, error) {
	raw, err := h.client.LRange(ctx, h.key(sessionID), int64(-h.opts.MaxTurns), -1).Result()
	if err != nil {
		return nil, apperrors.NewSessionError("load", err)
	}

	turns := make([]models.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, apperrors.NewSessionError("decode", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (h *RedisHistory) Append(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		b, err := json.Marshal(turn)
		if err != nil {
			return apperrors.NewSessionError("encode", err)
		}
		values = append(values, string(b))
	}

	key := h.key(sessionID)
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-h.opts.MaxTurns), -1)
		pipe.Expire(ctx, key, h.opts.TTL)
		return nil
	})
	if err != nil {
		return apperrors.NewSessionError("append", err)
	}
	return nil
}
