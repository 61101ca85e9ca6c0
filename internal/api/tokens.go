package api

import (
	"context"
	"sync"

	"github.com/zuvy/assess/internal/store"
)

// TokenStore persists the access/refresh token pair.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// SessionEvents receives auth lifecycle notifications.
type SessionEvents interface {
	SessionExpired(err error)
}

// SessionEventsFunc adapts a function to SessionEvents.
type SessionEventsFunc func(err error)

func (f SessionEventsFunc) SessionExpired(err error) { f(err) }

// MemoryTokens keeps tokens in memory.
type MemoryTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func NewMemoryTokens(access, refresh string) *MemoryTokens {
	return &MemoryTokens{access: access, refresh: refresh}
}

func (m *MemoryTokens) Tokens(context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.refresh, nil
}

func (m *MemoryTokens) SetTokens(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	return nil
}

func (m *MemoryTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	return nil
}

// StoredTokens reads and writes tokens through the credential table.
type StoredTokens struct {
	repo store.CredentialRepo
}

func NewStoredTokens(repo store.CredentialRepo) *StoredTokens {
	return &StoredTokens{repo: repo}
}

func (s *StoredTokens) Tokens(ctx context.Context) (string, string, error) {
	c, err := s.repo.Load(ctx)
	if err != nil || c == nil {
		return "", "", err
	}
	return c.AccessToken, c.RefreshToken, nil
}

func (s *StoredTokens) SetTokens(ctx context.Context, access, refresh string) error {
	return s.repo.UpdateTokens(ctx, access, refresh)
}

func (s *StoredTokens) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
