package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherSettlesTickets(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 2, Logger: zap.NewNop()})
	d.Start(context.Background())
	defer d.Stop()

	ok := d.Dispatch("ok", func(ctx context.Context) error { return nil })
	boom := errors.New("boom")
	failed := d.Dispatch("fail", func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ok.Wait(ctx))
	require.ErrorIs(t, failed.Wait(ctx), boom)
	assert.True(t, failed.IsSettled())
	assert.Equal(t, "fail", failed.Type)
}

func TestDispatcherDoesNotRetry(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 1, MaxRetries: 5, RetryDelay: time.Millisecond})
	d.Start(context.Background())
	defer d.Stop()

	var calls int32
	ticket := d.Dispatch("flaky", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("transient")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, ticket.Wait(ctx))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDispatchReturnsBeforeCommandRuns(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 1})
	d.Start(context.Background())
	defer d.Stop()

	release := make(chan struct{})
	ticket := d.Dispatch("slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	assert.False(t, ticket.IsSettled())
	assert.NoError(t, ticket.Err())
	close(release)
	require.NoError(t, ticket.Wait(context.Background()))
}

func TestDispatchAfterStop(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 1})
	d.Start(context.Background())
	d.Stop()

	ticket := d.Dispatch("late", func(ctx context.Context) error { return nil })
	assert.True(t, ticket.IsSettled())
	assert.ErrorIs(t, ticket.Err(), ErrStopped)
}

func TestStopCancelsRunningCommand(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 1})
	d.Start(context.Background())

	started := make(chan struct{})
	ticket := d.Dispatch("blocking", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	d.Stop()
	assert.ErrorIs(t, ticket.Wait(context.Background()), context.Canceled)
}

func TestStopSettlesEveryAcceptedCommand(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 1, BufferSize: 1})
	d.Start(context.Background())

	started := make(chan struct{})
	running := d.Dispatch("running", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	buffered := d.Dispatch("buffered", func(ctx context.Context) error { return nil })

	blocked := make(chan *Ticket, 1)
	go func() {
		blocked <- d.Dispatch("blocked", func(ctx context.Context) error { return nil })
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop blocked behind a full buffer")
	}

	var late *Ticket
	select {
	case late = <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch stayed blocked after stop")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, ticket := range []*Ticket{running, buffered, late} {
		_ = ticket.Wait(ctx)
		assert.True(t, ticket.IsSettled(), "ticket %s", ticket.Type)
	}
	assert.ErrorIs(t, running.Err(), context.Canceled)
}
