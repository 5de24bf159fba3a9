package jobs

import (
	"context"
	"sync"
)

// Ticket is the pending marker handed back when a job is enqueued. It settles
// exactly once, when the job succeeds or finally fails.
type Ticket struct {
	ID   string
	Type string

	once sync.Once
	done chan struct{}
	err  error
}

func newTicket(id, typ string) *Ticket {
	return &Ticket{ID: id, Type: typ, done: make(chan struct{})}
}

// Settled returns a ticket that is already settled with err.
func Settled(id, typ string, err error) *Ticket {
	t := newTicket(id, typ)
	t.settle(err)
	return t
}

func (t *Ticket) settle(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed once the job settles.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// IsSettled reports whether the job has finished.
func (t *Ticket) IsSettled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Err returns the job outcome; nil while pending or on success.
func (t *Ticket) Err() error {
	if !t.IsSettled() {
		return nil
	}
	return t.err
}

// Wait blocks until the job settles or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return t.err
	}
}
