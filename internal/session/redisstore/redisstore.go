// Package redisstore stores conversation history in Redis lists so multiple
// replicas share session memory.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/session"
)

const keyPrefix = "chat:history:"

type Store struct {
	client *redis.Client
	limit  int
}

// Conn opens and pings a Redis connection from config.
func Conn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}

func NewStore(client *redis.Client, limit int) *Store {
	if limit <= 0 {
		limit = session.DefaultHistoryLimit
	}
	return &Store{client: client, limit: limit}
}

func (s *Store) GetOrCreate(ctx context.Context, id string, reset bool) ([]session.Message, error) {
	key := keyPrefix + id
	if reset {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]session.Message, 0, len(raw))
	for _, item := range raw {
		var m session.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *Store) Append(ctx context.Context, id string, msgs ...session.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	key := keyPrefix + id
	items := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		items = append(items, data)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, items...)
	pipe.LTrim(ctx, key, int64(-s.limit), -1)
	pipe.Expire(ctx, key, 24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
