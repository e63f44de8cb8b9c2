package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shoppermo/shoppermo-server/pkg/metrics"
)

// DefaultTimeout bounds a single send.
const DefaultTimeout = 10 * time.Second

// Dispatcher sends notifications in the background. Failures are logged and
// counted, never returned to the caller.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{sender: sender, timeout: timeout}
}

// Notify queues msg and returns immediately. The send is detached from ctx's
// cancellation so a finished request does not abort it.
func (d *Dispatcher) Notify(ctx context.Context, kind string, msg Message) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		slog.Warn("notification dropped after shutdown", "kind", kind, "subject", msg.Subject)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	sendCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		d.send(sendCtx, kind, msg)
	}()
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.sender.Send(ctx, msg)
	metrics.RecordNotification(kind, err)
	if err != nil {
		slog.Error("notification failed", "kind", kind, "subject", msg.Subject, "error", err)
		return
	}
	slog.Debug("notification sent", "kind", kind, "subject", msg.Subject)
}

// Close stops accepting notifications and waits for in-flight sends until
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
