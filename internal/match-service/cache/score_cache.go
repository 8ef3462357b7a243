package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/liga-match-core/pkg/contracts/events"
)

// RedisCache guarda o snapshot corrente de placar por partida no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis para o placar corrente de uma partida
func key(matchID string) string { return "score:current:" + matchID }

// SetCurrent armazena o placar corrente de uma partida no Redis com TTL definido
func (r *RedisCache) SetCurrent(ctx context.Context, e events.ScoreUpdate) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(e.MatchID), b, r.TTL).Err()
}

// GetCurrent recupera o placar cacheado; ok=false em cache miss
func (r *RedisCache) GetCurrent(ctx context.Context, matchID string, out *events.ScoreUpdate) (bool, error) {
	val, err := r.Client.Get(ctx, key(matchID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, err
	}
	return true, nil
}
