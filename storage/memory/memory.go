// Package memory provides an in-memory implementation of the
// billing.RecordStore interface, intended for local development and tests
// where no Firestore project is configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

// Store implements billing.RecordStore using in-memory maps.
type Store struct {
	mu      sync.RWMutex
	records map[string]*billing.SubscriptionData
	pending map[string]*billing.PendingCheckout
}

// New creates a new in-memory record store.
func New() *Store {
	return &Store{
		records: make(map[string]*billing.SubscriptionData),
		pending: make(map[string]*billing.PendingCheckout),
	}
}

// MergeSubscription implements billing.RecordStore. Matches the Firestore
// merge semantics: status and end date always overwrite, the remaining
// fields only when set.
func (s *Store) MergeSubscription(_ context.Context, userID string, upd billing.SubscriptionUpdate) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = &billing.SubscriptionData{}
		s.records[userID] = rec
	}

	rec.Status = upd.Status
	rec.EndDate = upd.EndDate
	if upd.Plan != "" {
		rec.Plan = upd.Plan
	}
	if upd.CustomerID != "" {
		rec.CustomerID = upd.CustomerID
	}
	if upd.SubscriptionID != "" {
		rec.SubscriptionID = upd.SubscriptionID
	}
}

// GetSubscription returns a copy of the stored subscription state, or nil
// when the user has none.
func (s *Store) GetSubscription(_ context.Context, userID string) (*billing.SubscriptionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}

	recCopy := *rec
	if rec.EndDate != nil {
		end := *rec.EndDate
		recCopy.EndDate = &end
	}
	return &recCopy, nil
}

// StashPendingCheckout implements billing.RecordStore.
func (s *Store) StashPendingCheckout(_ context.Context, email string, pc billing.PendingCheckout) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pcCopy := pc
	s.pending[key] = &pcCopy
}

// ClaimPendingCheckout implements billing.RecordStore.
func (s *Store) ClaimPendingCheckout(_ context.Context, email, userID string) (*billing.PendingCheckout, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" || userID == "" {
		return nil, fmt.Errorf("email and userId are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.pending[key]
	if !ok {
		return nil, nil
	}
	delete(s.pending, key)

	rec, ok := s.records[userID]
	if !ok {
		rec = &billing.SubscriptionData{}
		s.records[userID] = rec
	}
	rec.Status = billing.StatusActive
	rec.EndDate = nil
	if pc.Plan != "" {
		rec.Plan = pc.Plan
	}
	if pc.CustomerID != "" {
		rec.CustomerID = pc.CustomerID
	}
	rec.SubscriptionID = pc.SubscriptionID

	pcCopy := *pc
	return &pcCopy, nil
}

// Reset clears all stored state. Test helper.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*billing.SubscriptionData)
	s.pending = make(map[string]*billing.PendingCheckout)
}
