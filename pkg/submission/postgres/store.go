// Package postgres provides PostgreSQL storage for form submissions.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/shoppermo/shoppermo-server/pkg/submission"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	tableWaitlist     = "waitlist"
	tableApplications = "merchant_applications"
	tableSales        = "contact_sales"
	tableContacts     = "contact_inquiries"
)

var (
	waitlistColumns    = []string{"id", "name", "email", "created_at"}
	applicationColumns = []string{"id", "business_name", "contact_name", "email", "phone", "category", "plan", "created_at"}
	salesColumns       = []string{"id", "full_name", "work_email", "company_name", "company_size", "message", "created_at"}
	contactColumns     = []string{"id", "name", "email", "subject", "message", "created_at"}
)

// Store implements submission.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL submission store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateWaitlistEntry inserts a waitlist entry.
func (s *Store) CreateWaitlistEntry(ctx context.Context, e *submission.WaitlistEntry) error {
	return s.insert(ctx, psq.Insert(tableWaitlist).
		Columns(waitlistColumns...).
		Values(e.ID, e.Name, e.Email, e.CreatedAt))
}

// ListWaitlist returns waitlist entries oldest first.
func (s *Store) ListWaitlist(ctx context.Context) ([]submission.WaitlistEntry, error) {
	return list(ctx, s.db, tableWaitlist, waitlistColumns, func(rows *sql.Rows) (submission.WaitlistEntry, error) {
		var e submission.WaitlistEntry
		err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.CreatedAt)
		return e, err
	})
}

// CreateMerchantApplication inserts a merchant application.
func (s *Store) CreateMerchantApplication(ctx context.Context, a *submission.MerchantApplication) error {
	return s.insert(ctx, psq.Insert(tableApplications).
		Columns(applicationColumns...).
		Values(a.ID, a.BusinessName, a.ContactName, a.Email, a.Phone, a.Category, a.Plan, a.CreatedAt))
}

// ListMerchantApplications returns merchant applications oldest first.
func (s *Store) ListMerchantApplications(ctx context.Context) ([]submission.MerchantApplication, error) {
	return list(ctx, s.db, tableApplications, applicationColumns, func(rows *sql.Rows) (submission.MerchantApplication, error) {
		var a submission.MerchantApplication
		err := rows.Scan(&a.ID, &a.BusinessName, &a.ContactName, &a.Email, &a.Phone, &a.Category, &a.Plan, &a.CreatedAt)
		return a, err
	})
}

// CreateSalesInquiry inserts a contact-sales request. A nil message is stored as NULL.
func (s *Store) CreateSalesInquiry(ctx context.Context, q *submission.SalesInquiry) error {
	var msg sql.NullString
	if q.Message != nil {
		msg = sql.NullString{String: *q.Message, Valid: true}
	}
	return s.insert(ctx, psq.Insert(tableSales).
		Columns(salesColumns...).
		Values(q.ID, q.FullName, q.WorkEmail, q.CompanyName, q.CompanySize, msg, q.CreatedAt))
}

// ListSalesInquiries returns contact-sales requests oldest first.
func (s *Store) ListSalesInquiries(ctx context.Context) ([]submission.SalesInquiry, error) {
	return list(ctx, s.db, tableSales, salesColumns, func(rows *sql.Rows) (submission.SalesInquiry, error) {
		var (
			q   submission.SalesInquiry
			msg sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.FullName, &q.WorkEmail, &q.CompanyName, &q.CompanySize, &msg, &q.CreatedAt); err != nil {
			return q, err
		}
		if msg.Valid {
			q.Message = &msg.String
		}
		return q, nil
	})
}

// CreateContactInquiry inserts a contact inquiry.
func (s *Store) CreateContactInquiry(ctx context.Context, q *submission.ContactInquiry) error {
	return s.insert(ctx, psq.Insert(tableContacts).
		Columns(contactColumns...).
		Values(q.ID, q.Name, q.Email, q.Subject, q.Message, q.CreatedAt))
}

// ListContactInquiries returns contact inquiries oldest first.
func (s *Store) ListContactInquiries(ctx context.Context) ([]submission.ContactInquiry, error) {
	return list(ctx, s.db, tableContacts, contactColumns, func(rows *sql.Rows) (submission.ContactInquiry, error) {
		var q submission.ContactInquiry
		err := rows.Scan(&q.ID, &q.Name, &q.Email, &q.Subject, &q.Message, &q.CreatedAt)
		return q, err
	})
}

func (s *Store) insert(ctx context.Context, b sq.InsertBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

func list[T any](ctx context.Context, db *sql.DB, table string, columns []string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	query, args, err := psq.Select(columns...).
		From(table).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	result := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	return result, nil
}

// Verify interface compliance.
var _ submission.Store = (*Store)(nil)
