package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

func newTestCommands(t *testing.T) (*Commands, *store.AlertStore) {
	t.Helper()
	dispatcher := jobs.NewDispatcher(jobs.QueueConfig{Workers: 4, BufferSize: 16})
	dispatcher.Start(context.Background())
	t.Cleanup(dispatcher.Stop)
	alerts := store.NewAlertStore(10)
	return NewCommands(dispatcher, alerts, NewMetricsService(), nil), alerts
}

func waitTicket(t *testing.T, ticket *jobs.Ticket) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := ticket.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

// callCounter counts remote calls made by a stub.
type callCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *callCounter) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

func (c *callCounter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}
