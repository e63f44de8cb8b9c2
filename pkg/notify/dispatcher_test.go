package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	err     error
	block   chan struct{}
	ctxErrs []error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_DeliversAsync(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, time.Second)

	d.Notify(context.Background(), "waitlist", Message{Subject: "one"})
	d.Notify(context.Background(), "waitlist", Message{Subject: "two"})

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_DetachedFromRequestContext(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, "contact", Message{Subject: "after cancel"})

	require.NoError(t, d.Close(context.Background()))
	require.Equal(t, 1, sender.count())
	assert.NoError(t, sender.ctxErrs[0])
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, time.Second)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), "waitlist", Message{Subject: "x"})
	})
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 1, sender.count())
}

func TestDispatcher_TimeoutBoundsSend(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, 20*time.Millisecond)

	d.Notify(context.Background(), "waitlist", Message{Subject: "slow"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	require.Equal(t, 1, sender.count())
	assert.ErrorIs(t, sender.ctxErrs[0], context.DeadlineExceeded)
}

func TestDispatcher_CloseHonorsContext(t *testing.T) {
	block := make(chan struct{})
	sender := &recordingSender{block: block}
	d := NewDispatcher(sender, time.Minute)
	d.Notify(context.Background(), "waitlist", Message{Subject: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(block)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, time.Second)
	require.NoError(t, d.Close(context.Background()))

	d.Notify(context.Background(), "waitlist", Message{Subject: "late"})
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 0, sender.count())
}

func TestNewDispatcher_DefaultTimeout(t *testing.T) {
	d := NewDispatcher(LogSender{}, 0)
	assert.Equal(t, DefaultTimeout, d.timeout)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{Subject: "s"}))
}
