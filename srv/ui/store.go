package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/opd-ai/bookwriter/srv/generator"
)

// ErrSessionNotFound is returned by a Store that has nothing under an ID.
var ErrSessionNotFound = errors.New("session not found")

// State is everything the UI keeps for one browser session.
type State struct {
	ID            string             `json:"id"`
	Authenticated bool               `json:"authenticated"`
	Workflow      *generator.Session `json:"workflow"`
	History       *MessageHistory    `json:"history"`
}

func newState(id string) *State {
	return &State{
		ID:       id,
		Workflow: generator.NewSession(id),
		History:  &MessageHistory{},
	}
}

// Store persists UI state between requests.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps state in process memory and forgets it after ttl.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 1*time.Hour)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*State), nil
}

func (m *MemoryStore) Save(ctx context.Context, st *State) error {
	m.cache.Set(st.ID, st, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// RedisStore keeps JSON-encoded state in Redis so several server processes
// can share sessions.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "bookwriter:session:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if st.History == nil {
		st.History = &MessageHistory{}
	}
	if st.Workflow == nil {
		st.Workflow = generator.NewSession(st.ID)
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(st.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}
