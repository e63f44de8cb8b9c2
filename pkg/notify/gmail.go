package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	// GmailSendScope is the OAuth scope required to send mail.
	GmailSendScope = "https://www.googleapis.com/auth/gmail.send"

	// DefaultGmailBaseURL is the Gmail REST API root.
	DefaultGmailBaseURL = "https://gmail.googleapis.com"

	gmailSendPath   = "/gmail/v1/users/me/messages/send"
	errorBodyLimit  = 1024
	contentTypeHTML = "text/html; charset=utf-8"
)

var (
	// ErrNoCredentials means neither a refresh token nor an access token was set.
	ErrNoCredentials = errors.New("gmail: no oauth credentials configured")

	// ErrNoRecipient means the notification recipient is empty.
	ErrNoRecipient = errors.New("gmail: recipient is required")
)

// GmailConfig configures a GmailSender. A refresh token with client
// credentials takes precedence over a static access token.
type GmailConfig struct {
	Recipient    string
	From         string
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string

	// BaseURL overrides DefaultGmailBaseURL.
	BaseURL string

	// TokenURL overrides the Google token endpoint.
	TokenURL string
}

// GmailSender sends notifications through the Gmail API.
type GmailSender struct {
	client   *http.Client
	endpoint string
	to       string
	from     string
}

// NewGmailSender creates a sender authorized by an oauth2 token source.
// ctx may carry an oauth2.HTTPClient used for both token refresh and API calls.
func NewGmailSender(ctx context.Context, cfg GmailConfig) (*GmailSender, error) {
	if strings.TrimSpace(cfg.Recipient) == "" {
		return nil, ErrNoRecipient
	}

	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultGmailBaseURL
	}

	return &GmailSender{
		client:   oauth2.NewClient(ctx, ts),
		endpoint: strings.TrimRight(base, "/") + gmailSendPath,
		to:       cfg.Recipient,
		from:     cfg.From,
	}, nil
}

func tokenSource(ctx context.Context, cfg GmailConfig) (oauth2.TokenSource, error) {
	switch {
	case cfg.RefreshToken != "":
		endpoint := endpoints.Google
		if cfg.TokenURL != "" {
			endpoint.TokenURL = cfg.TokenURL
		}
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{GmailSendScope},
		}
		return oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}), nil
	case cfg.AccessToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}), nil
	default:
		return nil, ErrNoCredentials
	}
}

type sendRequest struct {
	Raw string `json:"raw"`
}

// Send posts msg to the Gmail send endpoint.
func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(sendRequest{Raw: encodeRaw(g.to, g.from, msg)})
	if err != nil {
		return fmt.Errorf("encoding gmail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating gmail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending gmail request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("gmail send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// encodeRaw builds the RFC 822 message and encodes it as unpadded base64url.
func encodeRaw(to, from string, msg Message) string {
	var b strings.Builder
	b.WriteString("To: " + headerValue(to) + "\r\n")
	if from != "" {
		b.WriteString("From: " + headerValue(from) + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: " + contentTypeHTML + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}

// headerValue strips line breaks so user input cannot add headers.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// Verify interface compliance.
var _ Sender = (*GmailSender)(nil)
