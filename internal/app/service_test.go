package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesWhenOneFails(t *testing.T) {
	failing := &stubService{name: "http", startErr: errors.New("bind failed")}
	blocking := &stubService{name: "worker", block: true}
	runner := NewRunner(failing, blocking)

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "bind failed" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !failing.stopped.Load() || !blocking.stopped.Load() {
		t.Fatalf("expected every service to be stopped")
	}
}

func TestRunnerCancelledContextReturnsNil(t *testing.T) {
	blocking := &stubService{name: "worker", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancellation, got %v", err)
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(context.Background(), nil, ModeAll); err == nil {
		t.Fatalf("expected nil config error")
	}
	if validMode("scheduler") {
		t.Fatalf("unexpected valid mode")
	}
	for _, mode := range []string{ModeAll, ModeAPI, ModeWorker} {
		if !validMode(mode) {
			t.Fatalf("mode %s should be valid", mode)
		}
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}
