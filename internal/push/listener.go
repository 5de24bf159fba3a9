package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/config"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

// State of the push connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Message channels, used as metric labels.
const (
	ChannelUser  = "user"
	ChannelAdmin = "admin"
)

var (
	errSessionChanged = errors.New("session changed")
	errConnectionLost = errors.New("push connection lost")
)

type sessionSource interface {
	Session() models.Session
	Changes() *store.Signal
}

type notificationSink interface {
	AddNotification(item models.Notification)
}

type queueRefresher interface {
	FetchByStatus(ctx context.Context, status models.AppointmentStatus) *jobs.Ticket
}

type alertSink interface {
	Push(level, message string) models.Alert
}

// Observer receives connection state changes and message counts.
type Observer interface {
	ObservePushMessage(channel string)
	SetPushState(state string)
}

// Listener keeps one STOMP session open for the signed-in subject. It
// follows the session: no connection without one, a new connection when the
// token changes.
type Listener struct {
	cfg           config.PushConfig
	dialer        Dialer
	session       sessionSource
	notifications notificationSink
	queue         queueRefresher
	alerts        alertSink
	observer      Observer
	limiter       *rate.Limiter
	logger        *zap.Logger

	// Trailing queue refresh armed when a broadcast hits the rate limit.
	// Only touched by the Run goroutine.
	trailing      *time.Timer
	trailingC     <-chan time.Time
	trailingToken string

	mu    sync.RWMutex
	state State
}

// NewListener constructs a Listener. queue, alerts and observer are optional.
func NewListener(cfg config.PushConfig, dialer Dialer, session sessionSource, notifications notificationSink, queue queueRefresher, alerts alertSink, observer Observer, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.AdminRefreshRPS > 0 {
		limit = rate.Limit(cfg.AdminRefreshRPS)
	}
	burst := cfg.AdminRefreshBurst
	if burst <= 0 {
		burst = 1
	}
	return &Listener{
		cfg:           cfg,
		dialer:        dialer,
		session:       session,
		notifications: notifications,
		queue:         queue,
		alerts:        alerts,
		observer:      observer,
		limiter:       rate.NewLimiter(limit, burst),
		logger:        logger,
		state:         StateDisconnected,
	}
}

// State returns the current connection state.
func (l *Listener) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Listener) setState(state State) {
	l.mu.Lock()
	changed := l.state != state
	l.state = state
	l.mu.Unlock()
	if !changed {
		return
	}
	if l.observer != nil {
		l.observer.SetPushState(string(state))
	}
	l.logger.Debug("push state changed", zap.String("state", string(state)))
}

// Run connects whenever a session exists and reconnects after a fixed delay
// when the connection drops. Messages are handled on the calling goroutine,
// so none is handled after Run returns. Run returns when ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	changes, unsubscribe := l.session.Changes().Subscribe()
	defer unsubscribe()
	defer l.setState(StateDisconnected)
	defer l.stopTrailing()

	for {
		if ctx.Err() != nil {
			return nil
		}
		session := l.session.Session()
		if !session.Active() {
			l.setState(StateDisconnected)
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				continue
			}
		}

		err := l.serve(ctx, session, changes)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errSessionChanged) {
			continue
		}
		l.logger.Warn("push connection ended, reconnecting",
			zap.Error(err),
			zap.Duration("delay", l.cfg.ReconnectDelay),
		)
		if !l.wait(ctx, session.Token, changes) {
			return nil
		}
	}
}

// wait sleeps for the reconnect delay. A session change cuts the wait short.
func (l *Listener) wait(ctx context.Context, token string, changes <-chan struct{}) bool {
	timer := time.NewTimer(l.cfg.ReconnectDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-l.trailingC:
			l.flushRefresh(ctx)
		case <-changes:
			if l.session.Session().Token != token {
				return true
			}
		}
	}
}

func (l *Listener) serve(ctx context.Context, session models.Session, changes <-chan struct{}) error {
	l.setState(StateConnecting)
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	netConn, err := l.dialer.Dial(connCtx, session.Token)
	if err != nil {
		l.setState(StateDisconnected)
		return err
	}
	go func() {
		<-connCtx.Done()
		_ = netConn.Close()
	}()

	conn, err := l.connect(netConn, session.Token, cancel)
	if err != nil {
		l.setState(StateDisconnected)
		return fmt.Errorf("stomp connect: %w", err)
	}
	graceful := false
	defer func() {
		if graceful {
			l.disconnect(conn)
		}
	}()

	userDest := strings.ReplaceAll(l.cfg.UserDestination, "{subject}", session.Subject.PhoneNumber)
	userSub, err := conn.Subscribe(userDest, stomp.AckAuto)
	if err != nil {
		l.setState(StateDisconnected)
		return fmt.Errorf("subscribe %s: %w", userDest, err)
	}
	var adminC <-chan *stomp.Message
	if session.Subject.IsAdmin() && l.cfg.AdminDestination != "" {
		adminSub, err := conn.Subscribe(l.cfg.AdminDestination, stomp.AckAuto)
		if err != nil {
			l.setState(StateDisconnected)
			return fmt.Errorf("subscribe %s: %w", l.cfg.AdminDestination, err)
		}
		adminC = adminSub.C
	}

	l.setState(StateConnected)
	l.logger.Info("push connected",
		zap.String("destination", userDest),
		zap.Bool("admin", adminC != nil),
	)
	defer l.setState(StateDisconnected)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
			if l.session.Session().Token != session.Token {
				graceful = true
				return errSessionChanged
			}
		case msg, ok := <-userSub.C:
			if err := received(ctx, msg, ok); err != nil {
				return err
			}
			l.handleUser(msg.Body)
		case msg, ok := <-adminC:
			if err := received(ctx, msg, ok); err != nil {
				return err
			}
			l.handleAdmin(ctx, msg.Body)
		case <-l.trailingC:
			l.flushRefresh(ctx)
		}
	}
}

func received(ctx context.Context, msg *stomp.Message, ok bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !ok || msg == nil {
		return errConnectionLost
	}
	if msg.Err != nil {
		return msg.Err
	}
	return nil
}

// connect runs the STOMP handshake, bounded by the connect timeout.
func (l *Listener) connect(netConn net.Conn, token string, cancel context.CancelFunc) (*stomp.Conn, error) {
	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.Header("Authorization", "Bearer "+token),
		stomp.ConnOpt.HeartBeat(l.cfg.HeartBeat, l.cfg.HeartBeat),
	}
	if l.cfg.ConnectTimeout > 0 {
		timer := time.AfterFunc(l.cfg.ConnectTimeout, cancel)
		defer timer.Stop()
	}
	return stomp.Connect(netConn, opts...)
}

// disconnect says goodbye to the broker while the transport is still up.
func (l *Listener) disconnect(conn *stomp.Conn) {
	done := make(chan struct{})
	go func() {
		_ = conn.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func (l *Listener) handleUser(body []byte) {
	if l.observer != nil {
		l.observer.ObservePushMessage(ChannelUser)
	}
	var item models.Notification
	if err := json.Unmarshal(body, &item); err != nil {
		l.logger.Warn("discarding undecodable notification", zap.Error(err))
		return
	}
	l.notifications.AddNotification(item)
	if l.alerts != nil {
		l.alerts.Push(models.AlertInfo, "Notification: "+item.Message)
	}
}

func (l *Listener) handleAdmin(ctx context.Context, body []byte) {
	if l.observer != nil {
		l.observer.ObservePushMessage(ChannelAdmin)
	}
	if l.alerts != nil {
		l.alerts.Push(models.AlertInfo, "New Application: "+strings.TrimSpace(string(body)))
	}
	if l.queue == nil {
		return
	}
	if l.trailingC != nil {
		l.logger.Debug("pending queue refresh already scheduled")
		return
	}
	r := l.limiter.Reserve()
	if !r.OK() {
		return
	}
	if delay := r.Delay(); delay > 0 {
		l.trailing = time.NewTimer(delay)
		l.trailingC = l.trailing.C
		l.trailingToken = l.session.Session().Token
		l.logger.Debug("pending queue refresh deferred by rate limit", zap.Duration("delay", delay))
		return
	}
	l.queue.FetchByStatus(ctx, models.StatusPending)
}

// flushRefresh runs the deferred refresh. It covers every broadcast received
// since it was armed, unless the session changed in the meantime.
func (l *Listener) flushRefresh(ctx context.Context) {
	token := l.trailingToken
	l.trailing, l.trailingC, l.trailingToken = nil, nil, ""
	if ctx.Err() != nil || l.queue == nil {
		return
	}
	if l.session.Session().Token != token {
		return
	}
	l.queue.FetchByStatus(ctx, models.StatusPending)
}

func (l *Listener) stopTrailing() {
	if l.trailing != nil {
		l.trailing.Stop()
	}
	l.trailing, l.trailingC, l.trailingToken = nil, nil, ""
}
