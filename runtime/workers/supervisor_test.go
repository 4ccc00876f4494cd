package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type workerFunc func(ctx context.Context) error

func (f workerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var calls atomic.Int32
	panicky := workerFunc(func(ctx context.Context) error {
		calls.Add(1)
		panic("boom")
	})

	sup := NewSupervisor(log).Add(panicky)
	sup.Run(ctx)

	req.GreaterOrEqual(calls.Load(), int32(2), "panicking worker must be restarted")
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var calls atomic.Int32
	oneShot := workerFunc(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	sup := NewSupervisor(log).Add(oneShot)
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("supervisor did not return after worker finished")
	}
	req.Equal(int32(1), calls.Load(), "a cleanly finished worker must not be restarted")
}

func TestSupervisor_StopCancelsWorkers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	cancelled := make(chan error, 1)
	blocking := workerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		cancelled <- ctx.Err()
		return ctx.Err()
	})

	sup := NewSupervisor(log).Add(blocking)
	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	sup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not unblock the supervisor")
	}
	req.ErrorIs(<-cancelled, context.Canceled)
}
