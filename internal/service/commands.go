package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/middleware/requestid"
)

type commandDispatcher interface {
	Dispatch(name string, cmd jobs.Command) *jobs.Ticket
}

type alertSink interface {
	Push(level, message string) models.Alert
}

type commandObserver interface {
	ObserveCommand(name string, err error)
}

type sessionEpoch interface {
	Epoch() uint64
}

// ErrSessionChanged settles commands whose session ended before the result
// came back. Their result is dropped.
var ErrSessionChanged = errors.New("session changed before the command settled")

type epochKey struct{}

// Commands runs remote operations through the dispatcher. Failures are
// logged, counted and turned into alerts; the request ID of the caller
// travels with the command.
type Commands struct {
	dispatcher commandDispatcher
	alerts     alertSink
	observer   commandObserver
	logger     *zap.Logger

	session sessionEpoch
	gate    sync.RWMutex
}

// NewCommands constructs the command runner. alerts and observer are optional.
func NewCommands(dispatcher commandDispatcher, alerts alertSink, observer commandObserver, logger *zap.Logger) *Commands {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Commands{dispatcher: dispatcher, alerts: alerts, observer: observer, logger: logger}
}

// FollowSession ties command results to the session they were dispatched
// under. Without it every result is applied.
func (c *Commands) FollowSession(session sessionEpoch) {
	c.session = session
}

// Run dispatches cmd and returns its ticket at once. abort is called with the
// failure when the dispatcher drops the command without running it, so the
// store that was put into loading state can settle.
func (c *Commands) Run(ctx context.Context, name string, abort func(error), cmd jobs.Command) *jobs.Ticket {
	reqID := requestid.FromContext(ctx)
	epoch, tracked := c.epoch()
	var ran atomic.Bool
	ticket := c.dispatcher.Dispatch(name, func(workerCtx context.Context) error {
		ran.Store(true)
		cmdCtx := requestid.NewContext(workerCtx, reqID)
		if tracked {
			cmdCtx = context.WithValue(cmdCtx, epochKey{}, epoch)
		}
		err := cmd(cmdCtx)
		c.settled(name, reqID, err)
		return err
	})

	go func() {
		<-ticket.Done()
		if ran.Load() {
			return
		}
		err := ticket.Err()
		if abort != nil {
			c.gate.RLock()
			if !tracked || c.session.Epoch() == epoch {
				abort(err)
			}
			c.gate.RUnlock()
		}
		c.settled(name, reqID, err)
	}()
	return ticket
}

// Settle applies the store mutation of a finished remote call and passes err
// through. When the session changed since dispatch, apply is skipped and
// ErrSessionChanged is returned.
func (c *Commands) Settle(ctx context.Context, err error, apply func()) error {
	c.gate.RLock()
	defer c.gate.RUnlock()
	if epoch, ok := ctx.Value(epochKey{}).(uint64); ok && c.session != nil && c.session.Epoch() != epoch {
		c.logger.Debug("dropping result from an ended session", zap.Error(err))
		return ErrSessionChanged
	}
	apply()
	return err
}

// Transition runs a session change. No command result is applied while it
// runs.
func (c *Commands) Transition(fn func()) {
	if c == nil {
		fn()
		return
	}
	c.gate.Lock()
	defer c.gate.Unlock()
	fn()
}

func (c *Commands) epoch() (uint64, bool) {
	if c.session == nil {
		return 0, false
	}
	return c.session.Epoch(), true
}

// Refuse settles a command locally without any remote call.
func (c *Commands) Refuse(ctx context.Context, name string, err error) *jobs.Ticket {
	c.settled(name, requestid.FromContext(ctx), err)
	return jobs.Settled(uuid.NewString(), name, err)
}

func (c *Commands) settled(name, reqID string, err error) {
	if c.observer != nil {
		c.observer.ObserveCommand(name, err)
	}
	if err == nil || errors.Is(err, ErrSessionChanged) {
		return
	}
	c.logger.Warn("command failed",
		zap.String("command", name),
		zap.String("request_id", reqID),
		zap.Error(err),
	)
	if c.alerts != nil && !errors.Is(err, jobs.ErrStopped) {
		c.alerts.Push(models.AlertError, appErrors.FromError(err).Message)
	}
}

// Success pushes a success alert when an alert sink is wired.
func (c *Commands) Success(message string) {
	if c.alerts != nil {
		c.alerts.Push(models.AlertSuccess, message)
	}
}

func invalidPayload(err error, message string) *appErrors.Error {
	appErr := appErrors.WithFields(appErrors.ErrValidation, message, dto.FieldErrors(err))
	appErr.Err = err
	return appErr
}
