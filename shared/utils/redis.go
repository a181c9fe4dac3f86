package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/rentcare/rentcare-backend/shared/models"
)

var (
	RedisClient *redis.Client
	ctx         = context.Background()
)

// InitRedis initializes the Redis client used for revocable token sessions
func InitRedis() error {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}

	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}

	addr := fmt.Sprintf("%s:%s", redisHost, redisPort)

	RedisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		RedisClient = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return nil
}

// SessionStoreAvailable reports whether the Redis session store is up.
// Without it tokens are still verified by signature but cannot be revoked.
func SessionStoreAvailable() bool {
	return RedisClient != nil
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// tokenHash hashes the access token for use as a Redis key, so the token
// itself is never stored server-side
func tokenHash(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func sessionKey(accessToken string) string {
	return fmt.Sprintf("token:session:%s", tokenHash(accessToken))
}

// CreateTokenSession creates a new token session in Redis
func CreateTokenSession(accessToken string, profile models.SessionProfile, ttl time.Duration) (*models.TokenSession, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("session store not initialized")
	}

	now := time.Now()
	session := &models.TokenSession{
		Profile:    profile,
		CreatedAt:  now,
		LastUsedAt: now,
		ExpiresAt:  now.Add(ttl),
		SessionID:  uuid.New().String(),
	}

	sessionData, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := RedisClient.Set(ctx, sessionKey(accessToken), sessionData, ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session in Redis: %w", err)
	}

	return session, nil
}

// GetTokenSession retrieves a token session from Redis
func GetTokenSession(accessToken string) (*models.TokenSession, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("session store not initialized")
	}

	key := sessionKey(accessToken)
	sessionData, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var session models.TokenSession
	if err := json.Unmarshal([]byte(sessionData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.IsExpired() {
		RedisClient.Del(ctx, key)
		return nil, fmt.Errorf("session expired")
	}

	return &session, nil
}

// TouchTokenSession updates the last used timestamp for a token session
func TouchTokenSession(accessToken string) error {
	session, err := GetTokenSession(accessToken)
	if err != nil {
		return err
	}

	session.UpdateLastUsed()

	sessionData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal updated session: %w", err)
	}

	remainingTTL := time.Until(session.ExpiresAt)
	if remainingTTL <= 0 {
		return fmt.Errorf("session expired")
	}

	return RedisClient.Set(ctx, sessionKey(accessToken), sessionData, remainingTTL).Err()
}

// RevokeTokenSession removes a token session from Redis
func RevokeTokenSession(accessToken string) error {
	if RedisClient == nil {
		return fmt.Errorf("session store not initialized")
	}

	if err := RedisClient.Del(ctx, sessionKey(accessToken)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAllSubjectSessions removes every session belonging to one subject,
// used when an account or tenant is deleted
func RevokeAllSubjectSessions(subjectID string) error {
	if RedisClient == nil {
		return fmt.Errorf("session store not initialized")
	}

	keys, err := RedisClient.Keys(ctx, "token:session:*").Result()
	if err != nil {
		return fmt.Errorf("failed to scan session keys: %w", err)
	}

	for _, key := range keys {
		sessionData, err := RedisClient.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		var session models.TokenSession
		if json.Unmarshal([]byte(sessionData), &session) == nil {
			if session.Profile.SubjectID == subjectID {
				RedisClient.Del(ctx, key)
			}
		}
	}

	return nil
}
