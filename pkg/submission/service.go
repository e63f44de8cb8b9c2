package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service validates inputs, stamps IDs and creation times, and stores records.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid v4 generator.
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) {
		s.newID = gen
	}
}

// NewService creates a submission service backed by store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddWaitlistEntry validates in and stores a new waitlist entry.
func (s *Service) AddWaitlistEntry(ctx context.Context, in WaitlistInput) (*WaitlistEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := &WaitlistEntry{
		ID:        s.newID(),
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: s.stamp(),
	}
	if err := s.store.CreateWaitlistEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("storing waitlist entry: %w", err)
	}
	return e, nil
}

// AddMerchantApplication validates in and stores a new merchant application.
func (s *Service) AddMerchantApplication(ctx context.Context, in MerchantApplicationInput) (*MerchantApplication, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a := &MerchantApplication{
		ID:           s.newID(),
		BusinessName: in.BusinessName,
		ContactName:  in.ContactName,
		Email:        in.Email,
		Phone:        in.Phone,
		Category:     in.Category,
		Plan:         in.Plan,
		CreatedAt:    s.stamp(),
	}
	if err := s.store.CreateMerchantApplication(ctx, a); err != nil {
		return nil, fmt.Errorf("storing merchant application: %w", err)
	}
	return a, nil
}

// AddSalesInquiry validates in and stores a new contact-sales request.
func (s *Service) AddSalesInquiry(ctx context.Context, in SalesInquiryInput) (*SalesInquiry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	q := &SalesInquiry{
		ID:          s.newID(),
		FullName:    in.FullName,
		WorkEmail:   in.WorkEmail,
		CompanyName: in.CompanyName,
		CompanySize: in.CompanySize,
		Message:     in.Message,
		CreatedAt:   s.stamp(),
	}
	if err := s.store.CreateSalesInquiry(ctx, q); err != nil {
		return nil, fmt.Errorf("storing sales inquiry: %w", err)
	}
	return q, nil
}

// AddContactInquiry validates in and stores a new contact inquiry.
func (s *Service) AddContactInquiry(ctx context.Context, in ContactInquiryInput) (*ContactInquiry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	q := &ContactInquiry{
		ID:        s.newID(),
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: s.stamp(),
	}
	if err := s.store.CreateContactInquiry(ctx, q); err != nil {
		return nil, fmt.Errorf("storing contact inquiry: %w", err)
	}
	return q, nil
}

// Waitlist lists waitlist entries.
func (s *Service) Waitlist(ctx context.Context) ([]WaitlistEntry, error) {
	return s.store.ListWaitlist(ctx)
}

// MerchantApplications lists merchant applications.
func (s *Service) MerchantApplications(ctx context.Context) ([]MerchantApplication, error) {
	return s.store.ListMerchantApplications(ctx)
}

// SalesInquiries lists contact-sales requests.
func (s *Service) SalesInquiries(ctx context.Context) ([]SalesInquiry, error) {
	return s.store.ListSalesInquiries(ctx)
}

// ContactInquiries lists contact inquiries.
func (s *Service) ContactInquiries(ctx context.Context) ([]ContactInquiry, error) {
	return s.store.ListContactInquiries(ctx)
}

// stamp returns the creation time truncated to microseconds, the precision
// PostgreSQL timestamps keep.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
