package submission

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	waitlist     []WaitlistEntry
	applications []MerchantApplication
	sales        []SalesInquiry
	contacts     []ContactInquiry
}

// NewMemoryStore creates an empty in-memory submission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// CreateWaitlistEntry stores a copy of e.
func (s *MemoryStore) CreateWaitlistEntry(_ context.Context, e *WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitlist = append(s.waitlist, *e)
	return nil
}

// ListWaitlist returns waitlist entries oldest first.
func (s *MemoryStore) ListWaitlist(_ context.Context) ([]WaitlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByCreation(s.waitlist, func(e WaitlistEntry) time.Time { return e.CreatedAt }), nil
}

// CreateMerchantApplication stores a copy of a.
func (s *MemoryStore) CreateMerchantApplication(_ context.Context, a *MerchantApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications = append(s.applications, *a)
	return nil
}

// ListMerchantApplications returns merchant applications oldest first.
func (s *MemoryStore) ListMerchantApplications(_ context.Context) ([]MerchantApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByCreation(s.applications, func(a MerchantApplication) time.Time { return a.CreatedAt }), nil
}

// CreateSalesInquiry stores a copy of q.
func (s *MemoryStore) CreateSalesInquiry(_ context.Context, q *SalesInquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	if q.Message != nil {
		msg := *q.Message
		cp.Message = &msg
	}
	s.sales = append(s.sales, cp)
	return nil
}

// ListSalesInquiries returns contact-sales requests oldest first.
func (s *MemoryStore) ListSalesInquiries(_ context.Context) ([]SalesInquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByCreation(s.sales, func(q SalesInquiry) time.Time { return q.CreatedAt }), nil
}

// CreateContactInquiry stores a copy of q.
func (s *MemoryStore) CreateContactInquiry(_ context.Context, q *ContactInquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, *q)
	return nil
}

// ListContactInquiries returns contact inquiries oldest first.
func (s *MemoryStore) ListContactInquiries(_ context.Context) ([]ContactInquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByCreation(s.contacts, func(q ContactInquiry) time.Time { return q.CreatedAt }), nil
}

// sortedByCreation returns a non-nil copy of items stably sorted by creation
// time. Records sharing a timestamp keep insertion order.
func sortedByCreation[T any](items []T, createdAt func(T) time.Time) []T {
	out := make([]T, len(items))
	copy(out, items)
	slices.SortStableFunc(out, func(a, b T) int {
		return createdAt(a).Compare(createdAt(b))
	})
	return out
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
