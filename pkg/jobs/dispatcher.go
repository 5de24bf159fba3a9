package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Command is one remote operation plus the store mutation it settles into.
type Command func(ctx context.Context) error

// Dispatcher runs commands off the caller's goroutine and hands back tickets.
type Dispatcher struct {
	queue *Queue
}

// NewDispatcher builds a dispatcher over a command queue.
func NewDispatcher(cfg QueueConfig) *Dispatcher {
	cfg.MaxRetries = 0
	return &Dispatcher{queue: NewQueue("commands", runCommand, cfg)}
}

// Start begins executing dispatched commands.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop cancels running commands and settles queued ones with ErrStopped.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues cmd and returns immediately with its ticket. A dispatcher
// that is not running yields a ticket already settled with the failure.
func (d *Dispatcher) Dispatch(name string, cmd Command) *Ticket {
	ticket, err := d.queue.Enqueue(Job{Type: name, Payload: cmd})
	if err != nil {
		return Settled(uuid.NewString(), name, err)
	}
	return ticket
}

func runCommand(ctx context.Context, job Job) error {
	cmd, ok := job.Payload.(Command)
	if !ok {
		return fmt.Errorf("job %s: payload is %T, not a command", job.ID, job.Payload)
	}
	return cmd(ctx)
}
