package redis

import (
	"context"
	"sync"
	"time"

	"daily-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientStore is a Redis-aware implementation of app.ClientStore.
// Notes:
//   - Controllers hold live presenters, so the contexts themselves stay in a
//     local map.
//   - Redis marks which users have a live context (quiz:client:{userID}) so
//     other instances and operators can see who is signed in.
type ClientStore struct {
	client  *redis.Client
	ttl     time.Duration
	log     *zap.Logger
	mu      sync.RWMutex
	clients map[string]*app.Client
}

func NewClientStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *ClientStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientStore{
		client:  client,
		ttl:     ttl,
		log:     log,
		clients: make(map[string]*app.Client),
	}
}

func (s *ClientStore) GetOrCreate(userID string, build func() *app.Client) *app.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client, ok := s.clients[userID]; ok {
		s.touch(userID)
		return client
	}
	client := build()
	s.clients[userID] = client
	s.touch(userID)
	return client
}

func (s *ClientStore) Get(userID string) (*app.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[userID]
	return client, ok
}

func (s *ClientStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, userID)
	if err := s.client.Del(context.Background(), s.key(userID)).Err(); err != nil {
		s.log.Warn("clear client marker", zap.String("user", userID), zap.Error(err))
	}
}

// best-effort liveness marker
func (s *ClientStore) touch(userID string) {
	if err := s.client.Set(context.Background(), s.key(userID), "1", s.ttl).Err(); err != nil {
		s.log.Warn("set client marker", zap.String("user", userID), zap.Error(err))
	}
}

func (s *ClientStore) key(userID string) string {
	return "quiz:client:" + userID
}
