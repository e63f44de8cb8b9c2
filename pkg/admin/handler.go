// Package admin provides the password-protected operator API: login, account
// management and submission listings.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shoppermo/shoppermo-server/pkg/account"
	apihttp "github.com/shoppermo/shoppermo-server/pkg/http"
	"github.com/shoppermo/shoppermo-server/pkg/submission"
)

// AccountManager creates and lists merchant accounts.
type AccountManager interface {
	Create(ctx context.Context, username, password string) (account.Summary, error)
	List(ctx context.Context) ([]account.Summary, error)
}

// SubmissionReader lists stored form submissions.
type SubmissionReader interface {
	Waitlist(ctx context.Context) ([]submission.WaitlistEntry, error)
	MerchantApplications(ctx context.Context) ([]submission.MerchantApplication, error)
	SalesInquiries(ctx context.Context) ([]submission.SalesInquiry, error)
	ContactInquiries(ctx context.Context) ([]submission.ContactInquiry, error)
}

// Deps holds the collaborators of the admin API.
type Deps struct {
	Auth        *Authenticator
	Accounts    AccountManager
	Submissions SubmissionReader
}

// Handler provides admin REST API endpoints.
type Handler struct {
	mux  *http.ServeMux
	deps Deps
}

// NewHandler creates a new admin API handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		mux:  http.NewServeMux(),
		deps: deps,
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all admin API routes.
func (h *Handler) registerRoutes() {
	protect := h.deps.Auth.RequireAdmin()

	h.mux.HandleFunc("POST /api/admin/login", h.login)
	h.mux.Handle("POST /api/admin/logout", protect(http.HandlerFunc(h.logout)))
	h.mux.Handle("GET /api/admin/waitlist", protect(http.HandlerFunc(h.listWaitlist)))
	h.mux.Handle("GET /api/admin/applications", protect(http.HandlerFunc(h.listApplications)))
	h.mux.Handle("GET /api/admin/contact-sales", protect(http.HandlerFunc(h.listSalesInquiries)))
	h.mux.Handle("GET /api/admin/contact", protect(http.HandlerFunc(h.listContactInquiries)))
	h.mux.Handle("GET /api/admin/users", protect(http.HandlerFunc(h.listUsers)))
	h.mux.Handle("POST /api/admin/users", protect(http.HandlerFunc(h.createUser)))
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles POST /api/admin/login.
//
// @Summary      Admin login
// @Description  Exchanges the shared admin password for a session token valid for 24 hours.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Admin password"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  apihttp.ErrorResponse
// @Failure      503   {object}  apihttp.ErrorResponse
// @Router       /admin/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, http.StatusBadRequest, apihttp.MsgInvalidBody)
		return
	}

	token, err := h.deps.Auth.Login(r.Context(), req.Password)
	switch {
	case errors.Is(err, ErrNotConfigured):
		apihttp.WriteError(w, http.StatusServiceUnavailable, "Admin panel is not configured")
		return
	case errors.Is(err, ErrInvalidPassword):
		slog.Info("admin: login rejected", "remote_addr", r.RemoteAddr)
		apihttp.WriteError(w, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		slog.Error("admin: login failed", "error", err)
		apihttp.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	apihttp.WriteJSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
}

// logout handles POST /api/admin/logout.
//
// @Summary      Admin logout
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  apihttp.SuccessResponse
// @Failure      401  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess := GetSession(r.Context()); sess != nil {
		if err := h.deps.Auth.Logout(r.Context(), sess.Token); err != nil {
			slog.Error("admin: logout failed", "error", err)
			apihttp.WriteError(w, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	apihttp.WriteJSON(w, http.StatusOK, apihttp.SuccessResponse{Success: true})
}

// listWaitlist handles GET /api/admin/waitlist.
//
// @Summary      List waitlist signups
// @Tags         Admin
// @Produce      json
// @Success      200  {array}   submission.WaitlistEntry
// @Failure      401  {object}  apihttp.ErrorResponse
// @Failure      500  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/waitlist [get]
func (h *Handler) listWaitlist(w http.ResponseWriter, r *http.Request) {
	writeList(w, "Failed to fetch waitlist", func() ([]submission.WaitlistEntry, error) {
		return h.deps.Submissions.Waitlist(r.Context())
	})
}

// listApplications handles GET /api/admin/applications.
//
// @Summary      List merchant applications
// @Tags         Admin
// @Produce      json
// @Success      200  {array}   submission.MerchantApplication
// @Failure      401  {object}  apihttp.ErrorResponse
// @Failure      500  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/applications [get]
func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	writeList(w, "Failed to fetch applications", func() ([]submission.MerchantApplication, error) {
		return h.deps.Submissions.MerchantApplications(r.Context())
	})
}

// listSalesInquiries handles GET /api/admin/contact-sales.
//
// @Summary      List contact-sales requests
// @Tags         Admin
// @Produce      json
// @Success      200  {array}   submission.SalesInquiry
// @Failure      401  {object}  apihttp.ErrorResponse
// @Failure      500  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/contact-sales [get]
func (h *Handler) listSalesInquiries(w http.ResponseWriter, r *http.Request) {
	writeList(w, "Failed to fetch sales inquiries", func() ([]submission.SalesInquiry, error) {
		return h.deps.Submissions.SalesInquiries(r.Context())
	})
}

// listContactInquiries handles GET /api/admin/contact.
//
// @Summary      List contact inquiries
// @Tags         Admin
// @Produce      json
// @Success      200  {array}   submission.ContactInquiry
// @Failure      401  {object}  apihttp.ErrorResponse
// @Failure      500  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/contact [get]
func (h *Handler) listContactInquiries(w http.ResponseWriter, r *http.Request) {
	writeList(w, "Failed to fetch contact inquiries", func() ([]submission.ContactInquiry, error) {
		return h.deps.Submissions.ContactInquiries(r.Context())
	})
}

// listUsers handles GET /api/admin/users.
//
// @Summary      List merchant accounts
// @Tags         Admin
// @Produce      json
// @Success      200  {array}   account.Summary
// @Failure      401  {object}  apihttp.ErrorResponse
// @Failure      500  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	writeList(w, "Failed to fetch users", func() ([]account.Summary, error) {
		return h.deps.Accounts.List(r.Context())
	})
}

// createUser handles POST /api/admin/users.
//
// @Summary      Create a merchant account
// @Description  Usernames need at least 3 characters and passwords at least 6.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  account.Summary
// @Failure      400   {object}  apihttp.ErrorResponse
// @Failure      401   {object}  apihttp.ErrorResponse
// @Failure      409   {object}  apihttp.ErrorResponse
// @Failure      500   {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users [post]
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, http.StatusBadRequest, apihttp.MsgInvalidBody)
		return
	}

	created, err := h.deps.Accounts.Create(r.Context(), req.Username, req.Password)
	var verr *account.ValidationError
	switch {
	case errors.As(err, &verr):
		apihttp.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, account.ErrUsernameTaken):
		apihttp.WriteError(w, http.StatusConflict, "Username already exists")
		return
	case err != nil:
		slog.Error("admin: create user failed", "error", err)
		apihttp.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	apihttp.WriteJSON(w, http.StatusCreated, created)
}

// writeList writes the result of fetch, or failMsg with a 500.
func writeList[T any](w http.ResponseWriter, failMsg string, fetch func() ([]T, error)) {
	items, err := fetch()
	if err != nil {
		slog.Error("admin: listing failed", "what", failMsg, "error", err)
		apihttp.WriteError(w, http.StatusInternalServerError, failMsg)
		return
	}
	if items == nil {
		items = []T{}
	}
	apihttp.WriteJSON(w, http.StatusOK, items)
}
