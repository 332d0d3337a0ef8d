package typing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Indicators are best-effort, eventually-stale data: one key per
// (conversation, user) with a short TTL, so stale markers expire on their
// own and no sweep is needed.
const (
	keyPrefix  = "typing:"
	DefaultTTL = 5 * time.Second
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: DefaultTTL}
}

func Key(conversationID, userID uuid.UUID) string {
	return keyPrefix + conversationID.String() + ":" + userID.String()
}

// Set marks the user as typing in the conversation, refreshing the TTL if
// the marker already exists.
func (s *Store) Set(ctx context.Context, conversationID, userID uuid.UUID) error {
	startedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.rdb.Set(ctx, Key(conversationID, userID), startedAt, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set typing indicator: %w", err)
	}
	return nil
}

// Clear removes the marker ahead of its TTL.
func (s *Store) Clear(ctx context.Context, conversationID, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, Key(conversationID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear typing indicator: %w", err)
	}
	return nil
}

// Active returns the ids of users currently typing in the conversation.
func (s *Store) Active(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	pattern := keyPrefix + conversationID.String() + ":*"
	prefix := keyPrefix + conversationID.String() + ":"

	var userIDs []uuid.UUID
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		raw := strings.TrimPrefix(iter.Val(), prefix)
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan typing indicators: %w", err)
	}
	return userIDs, nil
}
