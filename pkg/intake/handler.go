// Package intake serves the public form endpoints.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apihttp "github.com/shoppermo/shoppermo-server/pkg/http"
	"github.com/shoppermo/shoppermo-server/pkg/metrics"
	"github.com/shoppermo/shoppermo-server/pkg/notify"
	"github.com/shoppermo/shoppermo-server/pkg/submission"
)

// Recorder stores validated submissions.
type Recorder interface {
	AddWaitlistEntry(ctx context.Context, in submission.WaitlistInput) (*submission.WaitlistEntry, error)
	AddMerchantApplication(ctx context.Context, in submission.MerchantApplicationInput) (*submission.MerchantApplication, error)
	AddSalesInquiry(ctx context.Context, in submission.SalesInquiryInput) (*submission.SalesInquiry, error)
	AddContactInquiry(ctx context.Context, in submission.ContactInquiryInput) (*submission.ContactInquiry, error)
}

// Notifier hands a message off for background delivery.
type Notifier interface {
	Notify(ctx context.Context, kind string, msg notify.Message)
}

// Handler serves the intake endpoints.
type Handler struct {
	mux      *http.ServeMux
	recorder Recorder
	notifier Notifier
}

// NewHandler creates an intake handler.
func NewHandler(recorder Recorder, notifier Notifier) *Handler {
	h := &Handler{
		mux:      http.NewServeMux(),
		recorder: recorder,
		notifier: notifier,
	}
	h.mux.HandleFunc("POST /api/waitlist", h.createWaitlistEntry)
	h.mux.HandleFunc("POST /api/merchant-applications", h.createMerchantApplication)
	h.mux.HandleFunc("POST /api/contact-sales", h.createSalesInquiry)
	h.mux.HandleFunc("POST /api/contact", h.createContactInquiry)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// createWaitlistEntry handles POST /api/waitlist.
//
// @Summary      Join the waitlist
// @Tags         Intake
// @Accept       json
// @Produce      json
// @Param        body  body      submission.WaitlistInput  true  "Signup"
// @Success      201   {object}  submission.WaitlistEntry
// @Failure      400   {object}  apihttp.ErrorResponse
// @Failure      500   {object}  apihttp.ErrorResponse
// @Router       /waitlist [post]
func (h *Handler) createWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.KindWaitlist, "Failed to create waitlist entry",
		h.recorder.AddWaitlistEntry, notify.WaitlistMessage)
}

// createMerchantApplication handles POST /api/merchant-applications.
//
// @Summary      Apply as a merchant
// @Tags         Intake
// @Accept       json
// @Produce      json
// @Param        body  body      submission.MerchantApplicationInput  true  "Application"
// @Success      201   {object}  submission.MerchantApplication
// @Failure      400   {object}  apihttp.ErrorResponse
// @Failure      500   {object}  apihttp.ErrorResponse
// @Router       /merchant-applications [post]
func (h *Handler) createMerchantApplication(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.KindMerchantApplication, "Failed to create merchant application",
		h.recorder.AddMerchantApplication, notify.MerchantApplicationMessage)
}

// createSalesInquiry handles POST /api/contact-sales.
//
// @Summary      Contact sales
// @Tags         Intake
// @Accept       json
// @Produce      json
// @Param        body  body      submission.SalesInquiryInput  true  "Inquiry"
// @Success      201   {object}  submission.SalesInquiry
// @Failure      400   {object}  apihttp.ErrorResponse
// @Failure      500   {object}  apihttp.ErrorResponse
// @Router       /contact-sales [post]
func (h *Handler) createSalesInquiry(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.KindSalesInquiry, "Failed to create contact sales entry",
		h.recorder.AddSalesInquiry, notify.SalesInquiryMessage)
}

// createContactInquiry handles POST /api/contact.
//
// @Summary      Send a contact message
// @Tags         Intake
// @Accept       json
// @Produce      json
// @Param        body  body      submission.ContactInquiryInput  true  "Message"
// @Success      201   {object}  submission.ContactInquiry
// @Failure      400   {object}  apihttp.ErrorResponse
// @Failure      500   {object}  apihttp.ErrorResponse
// @Router       /contact [post]
func (h *Handler) createContactInquiry(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.KindContactInquiry, "Failed to create contact inquiry",
		h.recorder.AddContactInquiry, notify.ContactInquiryMessage)
}

// submit decodes In, stores it, queues the notification and writes the
// record. The notification outcome never changes the response.
func submit[In, Out any](
	h *Handler,
	w http.ResponseWriter,
	r *http.Request,
	kind submission.Kind,
	failMsg string,
	create func(context.Context, In) (*Out, error),
	format func(*Out) (notify.Message, error),
) {
	var in In
	if err := apihttp.DecodeJSON(w, r, &in); err != nil {
		apihttp.WriteError(w, http.StatusBadRequest, apihttp.MsgInvalidBody)
		return
	}

	rec, err := create(r.Context(), in)
	var verr *submission.ValidationError
	switch {
	case errors.As(err, &verr):
		apihttp.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	case err != nil:
		slog.Error("intake: store failed", "kind", kind, "error", err)
		apihttp.WriteError(w, http.StatusInternalServerError, failMsg)
		return
	}
	metrics.RecordSubmission(string(kind))

	if msg, err := format(rec); err != nil {
		slog.Error("intake: formatting notification failed", "kind", kind, "error", err)
	} else {
		h.notifier.Notify(r.Context(), string(kind), msg)
	}

	apihttp.WriteJSON(w, http.StatusCreated, rec)
}
