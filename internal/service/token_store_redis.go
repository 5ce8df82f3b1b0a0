package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"auth-api/internal/domain"
)

// redisTokenStore guarda registros de tokens en Redis con TTL nativo.
// GETDEL hace atómico el consumo; un SET por usuario y tipo indexa los
// registros para las bajas masivas.
type redisTokenStore struct {
	client redisTokenClient
	prefix string
}

type redisTokenClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func NewRedisTokenStore(client *redis.Client) TokenStore {
	if client == nil {
		return nil
	}
	return &redisTokenStore{
		client: client,
		prefix: "auth:token:",
	}
}

func (s *redisTokenStore) tokenKey(token string, typ domain.TokenType) string {
	return s.prefix + string(typ) + ":" + token
}

func (s *redisTokenStore) userKey(userID string, typ domain.TokenType) string {
	return s.prefix + "user:" + userID + ":" + string(typ)
}

func (s *redisTokenStore) Save(rec domain.TokenRecord) error {
	if strings.TrimSpace(rec.Token) == "" {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	key := s.tokenKey(rec.Token, rec.Type)
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return err
	}
	userKey := s.userKey(rec.UserID, rec.Type)
	if err := s.client.SAdd(ctx, userKey, key).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, userKey, ttl).Err()
}

func (s *redisTokenStore) FindAndDelete(token string, typ domain.TokenType) (domain.TokenRecord, error) {
	if strings.TrimSpace(token) == "" {
		return domain.TokenRecord{}, domain.ErrTokenNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	payload, err := s.client.GetDel(ctx, s.tokenKey(token, typ)).Result()
	if err == redis.Nil {
		return domain.TokenRecord{}, domain.ErrTokenNotFound
	}
	if err != nil {
		return domain.TokenRecord{}, err
	}

	var rec domain.TokenRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.TokenRecord{}, err
	}
	if rec.Blacklisted {
		return domain.TokenRecord{}, domain.ErrTokenNotFound
	}
	return rec, nil
}

func (s *redisTokenStore) DeleteAllForUser(userID string, typ domain.TokenType) error {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	userKey := s.userKey(userID, typ)
	keys, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys = append(keys, userKey)
	return s.client.Del(ctx, keys...).Err()
}

// DeleteExpired no aplica: Redis expira los registros por TTL.
func (s *redisTokenStore) DeleteExpired() (int64, error) {
	return 0, nil
}
