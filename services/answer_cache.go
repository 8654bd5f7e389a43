package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github/itish2003/voicecare/models"
)

const answerKeyPrefix = "voicecare:answer:"

// AnswerCache remembers knowledge answers per normalized question.
type AnswerCache interface {
	Get(ctx context.Context, question string) (models.Answer, bool, error)
	Set(ctx context.Context, question string, answer models.Answer) error
	Clear(ctx context.Context) error
}

type RedisAnswerCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisAnswerCache(client *redisv9.Client, ttl time.Duration) *RedisAnswerCache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &RedisAnswerCache{client: client, ttl: ttl}
}

func (c *RedisAnswerCache) Get(ctx context.Context, question string) (models.Answer, bool, error) {
	raw, err := c.client.Get(ctx, answerKey(question)).Result()
	if err == redisv9.Nil {
		return models.Answer{}, false, nil
	}
	if err != nil {
		return models.Answer{}, false, fmt.Errorf("redis get answer failed: %w", err)
	}

	var answer models.Answer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return models.Answer{}, false, fmt.Errorf("unmarshal cached answer failed: %w", err)
	}
	return answer, true, nil
}

func (c *RedisAnswerCache) Set(ctx context.Context, question string, answer models.Answer) error {
	payload, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshal answer cache failed: %w", err)
	}
	if err := c.client.Set(ctx, answerKey(question), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	return nil
}

func (c *RedisAnswerCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, answerKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan answers failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete answers failed: %w", err)
	}
	return nil
}

func answerKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return answerKeyPrefix + hex.EncodeToString(sum[:])
}
