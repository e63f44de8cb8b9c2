package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoppermo/shoppermo-server/pkg/notify"
	"github.com/shoppermo/shoppermo-server/pkg/submission"
)

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
	msgs  []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, kind string, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.msgs = append(n.msgs, msg)
}

type failingSender struct{}

func (failingSender) Send(context.Context, notify.Message) error {
	return errors.New("gmail unavailable")
}

type failingStore struct {
	*submission.MemoryStore
}

func (failingStore) CreateWaitlistEntry(context.Context, *submission.WaitlistEntry) error {
	return errors.New("db down")
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func TestWaitlist_CreateAndList(t *testing.T) {
	svc := submission.NewService(submission.NewMemoryStore())
	notifier := &recordingNotifier{}
	h := NewHandler(svc, notifier)

	w := post(t, h, "/api/waitlist", map[string]string{"name": "Ada", "email": "ada@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var entry submission.WaitlistEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, "Ada", entry.Name)

	time.Sleep(time.Millisecond)
	w = post(t, h, "/api/waitlist", map[string]string{"name": "Bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	list, err := svc.Waitlist(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entry.ID, list[0].ID)
	assert.Equal(t, "Bob", list[1].Name)

	assert.Equal(t, []string{"waitlist", "waitlist"}, notifier.kinds)
	assert.Equal(t, "New Waitlist Signup: Ada", notifier.msgs[0].Subject)
}

func TestCreate_AllKinds(t *testing.T) {
	tests := []struct {
		path    string
		body    map[string]string
		kind    string
		subject string
	}{
		{
			path:    "/api/merchant-applications",
			body:    map[string]string{"businessName": "Corner Cafe", "contactName": "Sam", "email": "sam@cafe.test", "phone": "555", "category": "food", "plan": "starter"},
			kind:    "merchant_application",
			subject: "New Merchant Application: Corner Cafe",
		},
		{
			path:    "/api/contact-sales",
			body:    map[string]string{"fullName": "Jordan", "workEmail": "j@acme.test", "companyName": "Acme", "companySize": "10"},
			kind:    "contact_sales",
			subject: "New Sales Inquiry: Acme",
		},
		{
			path:    "/api/contact",
			body:    map[string]string{"name": "Ada", "email": "ada@example.com", "subject": "Partnership", "message": "Hello"},
			kind:    "contact",
			subject: "New Contact Inquiry: Partnership",
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			notifier := &recordingNotifier{}
			h := NewHandler(submission.NewService(submission.NewMemoryStore()), notifier)

			w := post(t, h, tt.path, tt.body)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			var rec map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
			assert.NotEmpty(t, rec["id"])
			assert.NotEmpty(t, rec["createdAt"])

			require.Len(t, notifier.kinds, 1)
			assert.Equal(t, tt.kind, notifier.kinds[0])
			assert.Equal(t, tt.subject, notifier.msgs[0].Subject)
		})
	}
}

func TestCreate_SalesInquiryMessageNull(t *testing.T) {
	h := NewHandler(submission.NewService(submission.NewMemoryStore()), &recordingNotifier{})

	w := post(t, h, "/api/contact-sales", map[string]string{
		"fullName": "Jordan", "workEmail": "j@acme.test", "companyName": "Acme", "companySize": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var rec map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	v, ok := rec["message"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestCreate_ValidationError(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := submission.NewService(submission.NewMemoryStore())
	h := NewHandler(svc, notifier)

	w := post(t, h, "/api/waitlist", map[string]string{"name": "Ada", "email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation error: email must be a valid email address", errorMessage(t, w))

	list, err := svc.Waitlist(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, notifier.kinds)
}

func TestCreate_MalformedJSON(t *testing.T) {
	h := NewHandler(submission.NewService(submission.NewMemoryStore()), &recordingNotifier{})

	for _, path := range []string{"/api/waitlist", "/api/merchant-applications", "/api/contact-sales", "/api/contact"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{"name":`))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "invalid JSON body", errorMessage(t, w))
	}
}

func TestCreate_EmptyBodyIsValidationError(t *testing.T) {
	h := NewHandler(submission.NewService(submission.NewMemoryStore()), &recordingNotifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation error: name is required; email is required", errorMessage(t, w))
}

func TestCreate_StoreFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewHandler(submission.NewService(failingStore{submission.NewMemoryStore()}), notifier)

	w := post(t, h, "/api/waitlist", map[string]string{"name": "Ada", "email": "ada@example.com"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create waitlist entry", errorMessage(t, w))
	assert.Empty(t, notifier.kinds)
}

func TestCreate_NotificationFailureDoesNotAffectResponse(t *testing.T) {
	dispatcher := notify.NewDispatcher(failingSender{}, time.Second)
	svc := submission.NewService(submission.NewMemoryStore())
	h := NewHandler(svc, dispatcher)

	w := post(t, h, "/api/waitlist", map[string]string{"name": "Ada", "email": "ada@example.com"})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, dispatcher.Close(context.Background()))

	list, err := svc.Waitlist(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreate_MethodNotAllowed(t *testing.T) {
	h := NewHandler(submission.NewService(submission.NewMemoryStore()), &recordingNotifier{})
	req := httptest.NewRequest(http.MethodGet, "/api/waitlist", http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
