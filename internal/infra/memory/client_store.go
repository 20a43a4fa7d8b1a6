package memory

import (
	"sync"

	"daily-quiz-service/internal/app"
)

// ClientStore is an in-memory implementation of app.ClientStore.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[string]*app.Client
}

func NewClientStore() *ClientStore {
	return &ClientStore{
		clients: make(map[string]*app.Client),
	}
}

func (s *ClientStore) GetOrCreate(userID string, build func() *app.Client) *app.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client, ok := s.clients[userID]; ok {
		return client
	}
	client := build()
	s.clients[userID] = client
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
}
