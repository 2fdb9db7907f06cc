package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// Sessions is an in-memory repository.SessionRepository.
type Sessions struct {
	mu      sync.Mutex
	records map[string]domain.SessionToken
}

var _ repository.SessionRepository = (*Sessions)(nil)

// NewSessions creates an empty store.
func NewSessions() *Sessions {
	return &Sessions{records: map[string]domain.SessionToken{}}
}

func (s *Sessions) Create(_ context.Context, rec *domain.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

func (s *Sessions) FindByPair(_ context.Context, accessDigest, refreshDigest string) (*domain.SessionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.AccessTokenDigest == accessDigest && rec.RefreshTokenDigest == refreshDigest {
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Sessions) FindByID(_ context.Context, id string) (*domain.SessionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Sessions) Block(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.Blocked {
		return false, nil
	}
	rec.Blocked = true
	s.records[id] = rec
	return true, nil
}

func (s *Sessions) DeleteByAccess(_ context.Context, accessDigest, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.AccessTokenDigest == accessDigest || id == sessionID {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *Sessions) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many records are stored.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
