package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ticketbot/internal/status"
	"ticketbot/models"
)

const sessionKeyPrefix = "session:"

// purchaseFields are the in-flight purchase fields cleared by a hard
// reset. Wallet balance, paid amounts, email and reminder flags
// survive a reset.
var purchaseFields = []string{
	models.FieldTicketType,
	models.FieldPaymentType,
	models.FieldAppliedCoupon,
	models.FieldOriginalPrice,
	models.FieldDiscountedPrice,
	models.FieldTotalPrice,
}

// RedisSessionStore keeps one hash per chat identity.
type RedisSessionStore struct {
	Redis *redis.Client
}

func NewRedisSessionStore(redisClient *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Redis: redisClient}
}

func sessionKey(chatID string) string {
	return sessionKeyPrefix + chatID
}

func (s *RedisSessionStore) Get(ctx context.Context, chatID string) (*models.Session, error) {
	fields, err := s.Redis.HGetAll(ctx, sessionKey(chatID)).Result()
	if err != nil {
		return nil, status.NewSessionError("session get", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return models.SessionFromHash(chatID, fields), nil
}

func (s *RedisSessionStore) GetOrCreate(ctx context.Context, chatID, userName string) (*models.Session, bool, error) {
	sess, err := s.Get(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	if sess != nil {
		return sess, false, nil
	}

	initial := map[string]any{
		models.FieldState:    string(models.StateWelcome),
		models.FieldUserName: userName,
	}
	if err := s.Redis.HSet(ctx, sessionKey(chatID), normalizeFields(initial)).Err(); err != nil {
		return nil, false, status.NewSessionError("session create", err)
	}

	return &models.Session{
		ChatID:    chatID,
		UserName:  userName,
		State:     models.StateWelcome,
		Reminders: map[string]bool{},
	}, true, nil
}

// Update writes only the given fields (merge semantics). Concurrent
// writers touching disjoint fields cannot clobber each other.
func (s *RedisSessionStore) Update(ctx context.Context, chatID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.Redis.HSet(ctx, sessionKey(chatID), normalizeFields(fields)).Err(); err != nil {
		return status.NewSessionError("session update", err)
	}
	return nil
}

// Reset clears the in-flight purchase fields and moves the session
// back to the main menu. Wallet balance is never touched here.
func (s *RedisSessionStore) Reset(ctx context.Context, chatID string) error {
	key := sessionKey(chatID)
	if err := s.Redis.HDel(ctx, key, purchaseFields...).Err(); err != nil {
		return status.NewSessionError("session reset", err)
	}
	if err := s.Redis.HSet(ctx, key, models.FieldState, string(models.StateMainMenu)).Err(); err != nil {
		return status.NewSessionError("session reset", err)
	}
	return nil
}

func (s *RedisSessionStore) Scan(ctx context.Context, fn func(*models.Session) error) error {
	iter := s.Redis.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.Redis.HGetAll(ctx, key).Result()
		if err != nil {
			return status.NewSessionError("session scan", err)
		}
		if len(fields) == 0 {
			continue
		}
		chatID := strings.TrimPrefix(key, sessionKeyPrefix)
		if err := fn(models.SessionFromHash(chatID, fields)); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return status.NewSessionError("session scan", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, chatID string) error {
	if err := s.Redis.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return status.NewSessionError("session delete", err)
	}
	return nil
}

// normalizeFields flattens typed values into the string forms the hash
// stores. Decimals go through String so no precision is lost, booleans
// become "1"/"0".
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case decimal.Decimal:
			out[k] = val.String()
		case bool:
			if val {
				out[k] = "1"
			} else {
				out[k] = "0"
			}
		case string:
			out[k] = val
		case int, int64:
			out[k] = fmt.Sprintf("%d", val)
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
