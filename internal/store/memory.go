package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory EstimateStore for testing.
type MemoryStore struct {
	mu        sync.RWMutex
	estimates map[string]*Estimate
	deleted   map[string]bool
	profile   *BusinessProfile
}

// NewMemoryStore creates a new in-memory estimate store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		estimates: make(map[string]*Estimate),
		deleted:   make(map[string]bool),
	}
}

// SaveEstimate inserts or replaces an estimate.
func (s *MemoryStore) SaveEstimate(ctx context.Context, est *Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if est.ID == "" {
		return fmt.Errorf("estimate ID is required")
	}

	now := time.Now()
	if existing, ok := s.estimates[est.ID]; ok {
		est.CreatedAt = existing.CreatedAt
	} else if est.CreatedAt.IsZero() {
		est.CreatedAt = now
	}
	est.UpdatedAt = now
	if est.Status == "" {
		est.Status = StatusDraft
	}

	cp := *est
	cp.Items = append([]Item(nil), est.Items...)
	cp.Total = 0
	for _, item := range cp.Items {
		cp.Total += item.LineTotal()
	}
	s.estimates[est.ID] = &cp
	delete(s.deleted, est.ID)
	return nil
}

// GetEstimate retrieves an estimate by ID, or nil when missing or
// soft-deleted.
func (s *MemoryStore) GetEstimate(ctx context.Context, id string) (*Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.deleted[id] {
		return nil, nil
	}
	est, ok := s.estimates[id]
	if !ok {
		return nil, nil
	}
	cp := *est
	cp.Items = append([]Item(nil), est.Items...)
	return &cp, nil
}

// ListEstimates returns non-deleted estimates, newest first.
func (s *MemoryStore) ListEstimates(ctx context.Context, limit, offset int) ([]*Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*Estimate
	for id, est := range s.estimates {
		if s.deleted[id] {
			continue
		}
		all = append(all, est)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit <= 0 {
		limit = 50
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// DeleteEstimate soft-deletes an estimate.
func (s *MemoryStore) DeleteEstimate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.estimates[id]; !ok || s.deleted[id] {
		return fmt.Errorf("estimate not found: %s", id)
	}
	s.deleted[id] = true
	return nil
}

// SaveBusinessProfile replaces the business profile.
func (s *MemoryStore) SaveBusinessProfile(ctx context.Context, profile *BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now()
	cp := *profile
	s.profile = &cp
	return nil
}

// GetBusinessProfile returns the profile, or nil when unset.
func (s *MemoryStore) GetBusinessProfile(ctx context.Context) (*BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil, nil
	}
	cp := *s.profile
	return &cp, nil
}

// Ping is a no-op for the memory store.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
