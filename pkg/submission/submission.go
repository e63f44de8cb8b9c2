// Package submission defines the public form records (waitlist signups,
// merchant applications, sales and contact inquiries) and their storage.
package submission

import (
	"context"
	"strings"
	"time"
)

// Kind names a submission type. It is used as a metric label and in logs.
type Kind string

// Submission kinds.
const (
	KindWaitlist            Kind = "waitlist"
	KindMerchantApplication Kind = "merchant_application"
	KindSalesInquiry        Kind = "contact_sales"
	KindContactInquiry      Kind = "contact"
)

// WaitlistEntry is a waitlist signup.
type WaitlistEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// MerchantApplication is a business applying to list deals.
type MerchantApplication struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	ContactName  string    `json:"contactName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Category     string    `json:"category"`
	Plan         string    `json:"plan"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SalesInquiry is a contact-sales request. Message is optional.
type SalesInquiry struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	WorkEmail   string    `json:"workEmail"`
	CompanyName string    `json:"companyName"`
	CompanySize string    `json:"companySize"`
	Message     *string   `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ContactInquiry is a general contact-form message.
type ContactInquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// WaitlistInput is the request body for a waitlist signup.
type WaitlistInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// Validate trims the input and checks it.
func (in *WaitlistInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return validateStruct(in)
}

// MerchantApplicationInput is the request body for a merchant application.
type MerchantApplicationInput struct {
	BusinessName string `json:"businessName" validate:"required,max=255"`
	ContactName  string `json:"contactName" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" validate:"required,max=64"`
	Category     string `json:"category" validate:"required,max=255"`
	Plan         string `json:"plan" validate:"required,max=255"`
}

// Validate trims the input and checks it.
func (in *MerchantApplicationInput) Validate() error {
	trim(&in.BusinessName, &in.ContactName, &in.Email, &in.Phone, &in.Category, &in.Plan)
	return validateStruct(in)
}

// SalesInquiryInput is the request body for a contact-sales request.
type SalesInquiryInput struct {
	FullName    string  `json:"fullName" validate:"required,max=255"`
	WorkEmail   string  `json:"workEmail" validate:"required,email,max=255"`
	CompanyName string  `json:"companyName" validate:"required,max=255"`
	CompanySize string  `json:"companySize" validate:"required,max=64"`
	Message     *string `json:"message" validate:"omitempty,max=5000"`
}

// Validate trims the input and checks it. A blank message becomes nil.
func (in *SalesInquiryInput) Validate() error {
	trim(&in.FullName, &in.WorkEmail, &in.CompanyName, &in.CompanySize)
	if in.Message != nil {
		msg := strings.TrimSpace(*in.Message)
		if msg == "" {
			in.Message = nil
		} else {
			in.Message = &msg
		}
	}
	return validateStruct(in)
}

// ContactInquiryInput is the request body for the contact form.
type ContactInquiryInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Validate trims the input and checks it.
func (in *ContactInquiryInput) Validate() error {
	trim(&in.Name, &in.Email, &in.Subject, &in.Message)
	return validateStruct(in)
}

// Store persists submissions. List methods return records ordered by
// CreatedAt ascending and never return a nil slice.
type Store interface {
	CreateWaitlistEntry(ctx context.Context, e *WaitlistEntry) error
	ListWaitlist(ctx context.Context) ([]WaitlistEntry, error)

	CreateMerchantApplication(ctx context.Context, a *MerchantApplication) error
	ListMerchantApplications(ctx context.Context) ([]MerchantApplication, error)

	CreateSalesInquiry(ctx context.Context, q *SalesInquiry) error
	ListSalesInquiries(ctx context.Context) ([]SalesInquiry, error)

	CreateContactInquiry(ctx context.Context, q *ContactInquiry) error
	ListContactInquiries(ctx context.Context) ([]ContactInquiry, error)
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
