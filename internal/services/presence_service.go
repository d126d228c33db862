package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceService mirrors hub connect/disconnect events into Redis so
// other instances and the REST API can answer "who is online" without
// asking the hub. It also backs the HTTP rate limiter.
type PresenceService struct {
	client *redis.Client
}

func NewPresenceService(client *redis.Client) *PresenceService {
	return &PresenceService{client: client}
}

const onlineUsersKey = "online_users"

func (s *PresenceService) SetUserOnline(ctx context.Context, clientID string) error {
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, onlineUsersKey, clientID)
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", clientID), map[string]interface{}{
		"status":     "online",
		"last_seen":  time.Now().Unix(),
		"updated_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", clientID), 5*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set user online", "clientID", clientID, "error", err)
		return err
	}
	return nil
}

func (s *PresenceService) SetUserOffline(ctx context.Context, clientID string) error {
	pipe := s.client.Pipeline()
	pipe.SRem(ctx, onlineUsersKey, clientID)
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", clientID), map[string]interface{}{
		"status":     "offline",
		"last_seen":  time.Now().Unix(),
		"updated_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", clientID), 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set user offline", "clientID", clientID, "error", err)
		return err
	}
	return nil
}

func (s *PresenceService) IsUserOnline(ctx context.Context, clientID string) (bool, error) {
	return s.client.SIsMember(ctx, onlineUsersKey, clientID).Result()
}

func (s *PresenceService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, onlineUsersKey).Result()
}

// CheckRateLimit allows up to limit requests per window for the given
// key, using a fixed window counter.
func (s *PresenceService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}
