package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"autoshop/models"
)

const sessionKeyPrefix = "autoshop:session:"

// Store keeps customer sessions between requests. Get returns models.NotFoundError for an
// unknown or expired id.
type Store interface {
	Get(ctx context.Context, id string) (*models.CustomerSession, error)
	Save(ctx context.Context, s *models.CustomerSession) error
	Delete(ctx context.Context, id string) error
}

func missing(id string) error {
	return &models.NotFoundError{Resource: "session", Key: id}
}

// RedisStore keeps sessions as JSON with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.CustomerSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, missing(id)
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get", Path: "redis session", Err: err}
	}
	var sess models.CustomerSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &models.StorageError{Op: "decode", Path: "redis session", Err: err}
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.CustomerSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ID, b, s.ttl).Err(); err != nil {
		return &models.StorageError{Op: "set", Path: "redis session", Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return &models.StorageError{Op: "delete", Path: "redis session", Err: err}
	}
	return nil
}

// MemoryStore keeps sessions in process. Expired sessions are dropped when read.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{sessions: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.CustomerSession, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok && s.ttl > 0 && s.now().After(e.expiresAt) {
		delete(s.sessions, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, missing(id)
	}
	// Sessions are stored encoded so callers never share slices with the store.
	var sess models.CustomerSession
	if err := json.Unmarshal(e.data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *models.CustomerSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sess.ID] = memoryEntry{data: b, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
