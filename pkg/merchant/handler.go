// Package merchant provides merchant login, logout and session lookup.
package merchant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shoppermo/shoppermo-server/pkg/account"
	apihttp "github.com/shoppermo/shoppermo-server/pkg/http"
	"github.com/shoppermo/shoppermo-server/pkg/metrics"
	"github.com/shoppermo/shoppermo-server/pkg/session"
)

const (
	msgCredentialsRequired = "Username and password are required"
	msgInvalidCredentials  = "Invalid username or password"
	msgLoginFailed         = "Login failed"
)

// Identity is the payload of a merchant session.
type Identity struct {
	AccountID string
	Username  string
}

// Authenticator verifies merchant credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*account.Account, error)
}

// Handler serves the merchant API.
type Handler struct {
	mux      *http.ServeMux
	accounts Authenticator
	sessions session.Authority[Identity]
}

// NewHandler creates a merchant API handler.
func NewHandler(accounts Authenticator, sessions session.Authority[Identity]) *Handler {
	h := &Handler{
		mux:      http.NewServeMux(),
		accounts: accounts,
		sessions: sessions,
	}
	h.mux.HandleFunc("POST /api/merchant/login", h.login)
	h.mux.HandleFunc("POST /api/merchant/logout", h.logout)
	h.mux.Handle("GET /api/merchant/session", session.RequireSession(sessions)(http.HandlerFunc(h.currentSession)))
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type sessionResponse struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// login handles POST /api/merchant/login.
//
// @Summary      Merchant login
// @Description  Unknown usernames and wrong passwords get the same response.
// @Tags         Merchant
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  apihttp.ErrorResponse
// @Failure      401   {object}  apihttp.ErrorResponse
// @Failure      500   {object}  apihttp.ErrorResponse
// @Router       /merchant/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, http.StatusBadRequest, apihttp.MsgInvalidBody)
		return
	}

	acct, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, account.ErrMissingCredentials):
		apihttp.WriteError(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		metrics.RecordLogin(string(session.DomainMerchant), "invalid")
		apihttp.WriteError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	case err != nil:
		metrics.RecordLogin(string(session.DomainMerchant), "error")
		slog.Error("merchant: login failed", "error", err)
		apihttp.WriteError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	token, err := h.sessions.Issue(r.Context(), Identity{AccountID: acct.ID, Username: acct.Username})
	if err != nil {
		metrics.RecordLogin(string(session.DomainMerchant), "error")
		slog.Error("merchant: issuing session failed", "error", err)
		apihttp.WriteError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	metrics.RecordLogin(string(session.DomainMerchant), "success")
	slog.Info("merchant: logged in", "account_id", acct.ID)
	apihttp.WriteJSON(w, http.StatusOK, loginResponse{Success: true, Token: token, Username: acct.Username})
}

// logout handles POST /api/merchant/logout. A missing or unknown token is
// not an error.
//
// @Summary      Merchant logout
// @Tags         Merchant
// @Produce      json
// @Success      200  {object}  apihttp.SuccessResponse
// @Router       /merchant/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := apihttp.BearerToken(r); ok {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			slog.Warn("merchant: revoke failed", "error", err)
		}
	}
	apihttp.WriteJSON(w, http.StatusOK, apihttp.SuccessResponse{Success: true})
}

// currentSession handles GET /api/merchant/session.
//
// @Summary      Current merchant session
// @Tags         Merchant
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  apihttp.ErrorResponse
// @Security     BearerAuth
// @Router       /merchant/session [get]
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext[Identity](r.Context())
	if sess == nil {
		apihttp.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, sessionResponse{
		Username: sess.Payload.Username,
		UserID:   sess.Payload.AccountID,
	})
}
