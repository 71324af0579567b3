package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SessionRepository abstracts session persistence so the engine works the
// same over an in-process map or an external durable store.
type SessionRepository interface {
	// GetOrCreate returns the stored session for id, or a fresh one when the
	// id has never been seen. An unknown id is never an error.
	GetOrCreate(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// RedisSessionRepository stores sessions as JSON blobs with a TTL, so
// abandoned sessions expire by store policy.
type RedisSessionRepository struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisSessionRepository {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("diveassistant.internal.conversation.sessions")
	}
	return &RedisSessionRepository{redis: client, ttl: ttl, tracer: tracer}
}

func (r *RedisSessionRepository) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	ctx, span := r.tracer.Start(ctx, "conversation.load_session")
	defer span.End()

	data, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return NewSession(id), nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *Session) error {
	ctx, span := r.tracer.Start(ctx, "conversation.save_session")
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := r.redis.Set(ctx, sessionKey(session.ID), data, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// MemorySessionRepository keeps sessions in a process-local map. Used in
// development and tests; sessions live for the process's uptime.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*Session)}
}

func (r *MemorySessionRepository) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	stored, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return NewSession(id), nil
	}
	// Copy so the caller mutates freely until Save.
	clone := *stored
	clone.History = append([]ChatMessage(nil), stored.History...)
	return &clone, nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *Session) error {
	clone := *session
	clone.History = append([]ChatMessage(nil), session.History...)
	r.mu.Lock()
	r.sessions[session.ID] = &clone
	r.mu.Unlock()
	return nil
}
