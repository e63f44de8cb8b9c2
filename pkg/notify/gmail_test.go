package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedSend struct {
	auth string
	raw  string
}

func newGmailServer(t *testing.T, status int, captured *capturedSend) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, gmailSendPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body sendRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if captured != nil {
			captured.auth = r.Header.Get("Authorization")
			captured.raw = body.Raw
		}

		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"denied"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewGmailSender_Validation(t *testing.T) {
	_, err := NewGmailSender(context.Background(), GmailConfig{AccessToken: "tok"})
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = NewGmailSender(context.Background(), GmailConfig{Recipient: "ops@shoppermo.test"})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestGmailSender_SendWithAccessToken(t *testing.T) {
	var captured capturedSend
	srv := newGmailServer(t, http.StatusOK, &captured)

	sender, err := NewGmailSender(context.Background(), GmailConfig{
		Recipient:   "ops@shoppermo.test",
		From:        "noreply@shoppermo.test",
		AccessToken: "static-token",
		BaseURL:     srv.URL + "/",
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), Message{Subject: "New Waitlist Signup: Ada", HTMLBody: "<h2>Hi</h2>"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer static-token", captured.auth)
	assert.NotContains(t, captured.raw, "=", "raw must be unpadded")

	decoded, err := base64.RawURLEncoding.DecodeString(captured.raw)
	require.NoError(t, err)
	text := string(decoded)
	assert.Contains(t, text, "To: ops@shoppermo.test\r\n")
	assert.Contains(t, text, "From: noreply@shoppermo.test\r\n")
	assert.Contains(t, text, "Subject: New Waitlist Signup: Ada\r\n")
	assert.Contains(t, text, "Content-Type: text/html; charset=utf-8\r\n")
	assert.True(t, strings.HasSuffix(text, "\r\n\r\n<h2>Hi</h2>"))
}

func TestGmailSender_RefreshTokenFlow(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	var captured capturedSend
	srv := newGmailServer(t, http.StatusOK, &captured)

	sender, err := NewGmailSender(context.Background(), GmailConfig{
		Recipient:    "ops@shoppermo.test",
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh-1",
		BaseURL:      srv.URL,
		TokenURL:     tokenSrv.URL,
	})
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), Message{Subject: "a", HTMLBody: "b"}))
	require.NoError(t, sender.Send(context.Background(), Message{Subject: "c", HTMLBody: "d"}))

	assert.Equal(t, "Bearer fresh-token", captured.auth)
	assert.Equal(t, int32(1), tokenCalls.Load(), "token is cached until expiry")
}

func TestGmailSender_ErrorStatus(t *testing.T) {
	srv := newGmailServer(t, http.StatusForbidden, nil)

	sender, err := NewGmailSender(context.Background(), GmailConfig{
		Recipient: "ops@shoppermo.test", AccessToken: "tok", BaseURL: srv.URL,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), Message{Subject: "s", HTMLBody: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "denied")
}

func TestEncodeRaw_StripsHeaderInjection(t *testing.T) {
	raw := encodeRaw("ops@shoppermo.test", "", Message{Subject: "Hi\r\nBcc: evil@example.com", HTMLBody: "x"})
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.NotContains(t, string(decoded), "\r\nBcc:")
	assert.NotContains(t, string(decoded), "From:")
}

func TestEncodeRaw_EncodesNonASCIISubject(t *testing.T) {
	raw := encodeRaw("ops@shoppermo.test", "", Message{Subject: "New Waitlist Signup: Zoë", HTMLBody: "x"})
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Subject: =?utf-8?q?")
}
