package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/bentacars/qualifier/internal/qualify"
)

// DefaultTTL keeps a buyer's slots around long enough for a slow conversation.
const DefaultTTL = 7 * 24 * time.Hour

// ErrEmptyUser is returned when a load or save has no user to key on.
var ErrEmptyUser = errors.New("memory: user id is required")

// Store persists the merged slot state per user between turns.
type Store interface {
	Load(ctx context.Context, userID string) (qualify.SlotState, error)
	Save(ctx context.Context, userID string, state qualify.SlotState) error
}

// RedisStore keeps slot state as a JSON document under one key per user.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("memory: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("bentacars.internal.memory")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{redis: client, tracer: tracer, ttl: ttl, prefix: "slots"}
}

// Load returns the stored state, or an empty state when nothing is stored.
func (s *RedisStore) Load(ctx context.Context, userID string) (qualify.SlotState, error) {
	ctx, span := s.tracer.Start(ctx, "memory.load_slots")
	defer span.End()

	key, err := s.key(userID)
	if err != nil {
		return nil, err
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return qualify.SlotState{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("memory: failed to load slots: %w", err)
	}

	var raw map[qualify.Slot]string
	if err := json.Unmarshal(data, &raw); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("memory: failed to decode slots: %w", err)
	}
	state := make(qualify.SlotState, len(raw))
	for slot, v := range raw {
		if v = qualify.Clean(v); v != "" {
			state[slot] = v
		}
	}
	return state, nil
}

// Save writes the known slots and refreshes the TTL. An empty state deletes
// the key so a reset is not resurrected on the next load.
func (s *RedisStore) Save(ctx context.Context, userID string, state qualify.SlotState) error {
	ctx, span := s.tracer.Start(ctx, "memory.save_slots")
	defer span.End()

	key, err := s.key(userID)
	if err != nil {
		return err
	}
	known := state.Clone()
	if len(known) == 0 {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("memory: failed to clear slots: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(known)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("memory: failed to marshal slots: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("memory: failed to persist slots: %w", err)
	}
	return nil
}

func (s *RedisStore) key(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrEmptyUser
	}
	return fmt.Sprintf("%s:%s", s.prefix, userID), nil
}
