//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(2, nopLogger())
	p.Start(ctx)

	var ran int32
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			done <- struct{}{}
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for task %d", i)
		}
	}
	p.Stop()
	if got := atomic.LoadInt32(&ran); got != 10 {
		t.Errorf("expected 10 tasks to run, got %d", got)
	}
}

func TestPool_SurvivesTaskErrorsAndPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(1, nopLogger())
	p.Start(ctx)

	done := make(chan struct{})
	_ = p.Submit(func(ctx context.Context) error { return errors.New("boom") })
	_ = p.Submit(func(ctx context.Context) error { panic("kaboom") })
	_ = p.Submit(func(ctx context.Context) error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after a failing task")
	}
	p.Stop()
}

func TestPool_SubmitRejectsWhenFull(t *testing.T) {
	// not started: nothing consumes the queue
	p := NewPool(1, nopLogger())
	var err error
	for i := 0; i < cap(p.jobs)+1; i++ {
		err = p.Submit(func(ctx context.Context) error { return nil })
	}
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if err := p.Submit(nil); err == nil {
		t.Error("expected error for nil task")
	}
}

func TestPool_StopDrainsQueue(t *testing.T) {
	p := NewPool(1, nopLogger())
	var ran int32
	for i := 0; i < 5; i++ {
		_ = p.Submit(func(ctx context.Context) error { atomic.AddInt32(&ran, 1); return nil })
	}
	p.Start(context.Background())
	p.Stop()
	p.Stop()
	if got := atomic.LoadInt32(&ran); got != 5 {
		t.Errorf("expected queued tasks to drain on stop, got %d", got)
	}
}
