package service

import (
	"strings"
	"sync"
	"time"

	"auth-api/internal/domain"
)

// TokenStore guarda registros de tokens revocables o de un solo uso.
// FindAndDelete debe ser atómico: ante llamadas concurrentes con el mismo
// token, a lo sumo una recibe el registro.
type TokenStore interface {
	Save(rec domain.TokenRecord) error
	FindAndDelete(token string, typ domain.TokenType) (domain.TokenRecord, error)
	DeleteAllForUser(userID string, typ domain.TokenType) error
	DeleteExpired() (int64, error)
}

type memoryTokenStore struct {
	mu    sync.Mutex
	items map[string]domain.TokenRecord
}

func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{
		items: make(map[string]domain.TokenRecord),
	}
}

func (s *memoryTokenStore) Save(rec domain.TokenRecord) error {
	if strings.TrimSpace(rec.Token) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Token] = rec
	return nil
}

func (s *memoryTokenStore) FindAndDelete(token string, typ domain.TokenType) (domain.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[token]
	if !ok || rec.Type != typ || rec.Blacklisted {
		return domain.TokenRecord{}, domain.ErrTokenNotFound
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		delete(s.items, token)
		return domain.TokenRecord{}, domain.ErrTokenNotFound
	}
	delete(s.items, token)
	return rec, nil
}

func (s *memoryTokenStore) DeleteAllForUser(userID string, typ domain.TokenType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, rec := range s.items {
		if rec.UserID == userID && rec.Type == typ {
			delete(s.items, token)
		}
	}
	return nil
}

func (s *memoryTokenStore) DeleteExpired() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for token, rec := range s.items {
		if now.After(rec.ExpiresAt) {
			delete(s.items, token)
			n++
		}
	}
	return n, nil
}
