package accounts

import (
	"context"
	"fmt"
	"sync"
)

// Store is an in-memory Service. Accounts are kept as immutable
// snapshots: Create stores a copy and lookups hand out that copy.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*PeerAccount
	byToken map[string]*PeerAccount
}

func NewStore() *Store {
	return &Store{
		byID:    map[string]*PeerAccount{},
		byToken: map[string]*PeerAccount{},
	}
}

func (s *Store) GetByToken(ctx context.Context, token string) (*PeerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byToken[token], nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*PeerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byID[id], nil
}

func (s *Store) Create(ctx context.Context, account PeerAccount) (*PeerAccount, error) {
	if account.ID == "" {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[account.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, account.ID)
	}
	for _, token := range account.HTTP.Incoming.AuthTokens {
		if _, ok := s.byToken[token]; ok {
			return nil, ErrTokenInUse
		}
	}

	acc := account
	acc.HTTP.Incoming.AuthTokens = append([]string(nil), account.HTTP.Incoming.AuthTokens...)

	s.byID[acc.ID] = &acc
	for _, token := range acc.HTTP.Incoming.AuthTokens {
		s.byToken[token] = &acc
	}

	return &acc, nil
}
