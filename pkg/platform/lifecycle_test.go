package platform

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLifecycle_StartAndStop(t *testing.T) {
	lc := NewLifecycle()
	var order []string

	lc.Register("first",
		func(context.Context) error { order = append(order, "start first"); return nil },
		func(context.Context) error { order = append(order, "stop first"); return nil },
	)
	lc.Register("second",
		func(context.Context) error { order = append(order, "start second"); return nil },
		func(context.Context) error { order = append(order, "stop second"); return nil },
	)

	ctx := context.Background()
	if err := lc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !lc.IsStarted() {
		t.Error("IsStarted() = false after Start")
	}
	if err := lc.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if lc.IsStarted() {
		t.Error("IsStarted() = true after Stop")
	}

	want := []string{"start first", "start second", "stop second", "stop first"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestLifecycle_StartAlreadyStarted(t *testing.T) {
	lc := NewLifecycle()
	ctx := context.Background()
	if err := lc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := lc.Start(ctx); err == nil {
		t.Error("second Start() expected error")
	}
}

func TestLifecycle_StopNotStarted(t *testing.T) {
	lc := NewLifecycle()
	called := false
	lc.OnStop("never", func(context.Context) error { called = true; return nil })

	if err := lc.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if called {
		t.Error("stop hook ran without Start")
	}
}

func TestLifecycle_StartRollback(t *testing.T) {
	lc := NewLifecycle()
	var stopped []string

	lc.Register("ok",
		func(context.Context) error { return nil },
		func(context.Context) error { stopped = append(stopped, "ok"); return nil },
	)
	lc.Register("broken",
		func(context.Context) error { return errors.New("boom") },
		func(context.Context) error { stopped = append(stopped, "broken"); return nil },
	)
	lc.Register("later",
		func(context.Context) error { t.Error("hook after failure started"); return nil },
		nil,
	)

	err := lc.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "starting broken") {
		t.Fatalf("Start() error = %v, want starting broken", err)
	}
	if lc.IsStarted() {
		t.Error("IsStarted() = true after failed Start")
	}
	if len(stopped) != 1 || stopped[0] != "ok" {
		t.Errorf("stopped = %v, want [ok]", stopped)
	}
}

func TestLifecycle_StopCollectsErrors(t *testing.T) {
	lc := NewLifecycle()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	lc.OnStop("a", func(context.Context) error { return errA })
	lc.OnStop("b", func(context.Context) error { return errB })

	ctx := context.Background()
	if err := lc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	err := lc.Stop(ctx)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Stop() error = %v, want both hook errors", err)
	}
}

type testCloser struct {
	closed bool
}

func (c *testCloser) Close() error {
	c.closed = true
	return nil
}

func TestLifecycle_RegisterCloser(t *testing.T) {
	lc := NewLifecycle()
	c := &testCloser{}
	lc.RegisterCloser("closer", c)

	ctx := context.Background()
	if err := lc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := lc.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !c.closed {
		t.Error("closer was not closed")
	}
}
