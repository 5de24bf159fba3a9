package push

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/server"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/config"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

const phone = "08123456789"

func startBroker(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(l) }()
	t.Cleanup(func() { _ = l.Close() })
	return l.Addr().String()
}

func publish(t *testing.T, addr, destination, body string) {
	t.Helper()
	conn, err := stomp.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, conn.Send(destination, "application/json", []byte(body)))
	require.NoError(t, conn.Disconnect())
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    3,
		"sub":   phone,
		"roles": roles,
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return signed
}

type countingDialer struct {
	Dialer
	failures int32
	attempts atomic.Int32
}

func (d *countingDialer) Dial(ctx context.Context, token string) (net.Conn, error) {
	if d.attempts.Add(1) <= d.failures {
		return nil, errors.New("connection refused")
	}
	return d.Dialer.Dial(ctx, token)
}

type queueStub struct {
	mu       sync.Mutex
	statuses []models.AppointmentStatus
}

func (q *queueStub) FetchByStatus(ctx context.Context, status models.AppointmentStatus) *jobs.Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses = append(q.statuses, status)
	return jobs.Settled("ticket", "admin.fetch", nil)
}

func (q *queueStub) calls() []models.AppointmentStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.AppointmentStatus(nil), q.statuses...)
}

type stateRecorder struct {
	mu       sync.Mutex
	states   []string
	messages map[string]int
}

func (r *stateRecorder) ObservePushMessage(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.messages == nil {
		r.messages = make(map[string]int)
	}
	r.messages[channel]++
}

func (r *stateRecorder) SetPushState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

type fixture struct {
	addr          string
	dialer        *countingDialer
	session       *store.SessionStore
	notifications *store.NotificationStore
	alerts        *store.AlertStore
	queue         *queueStub
	recorder      *stateRecorder
	listener      *Listener
}

func newFixture(t *testing.T, failures int32) *fixture {
	t.Helper()
	return newFixtureWithRefresh(t, failures, 0.001, 1)
}

func newFixtureWithRefresh(t *testing.T, failures int32, rps float64, burst int) *fixture {
	t.Helper()
	addr := startBroker(t)
	f := &fixture{
		addr:          addr,
		dialer:        &countingDialer{Dialer: &TCPDialer{Addr: addr}, failures: failures},
		session:       store.NewSessionStore(nil, nil),
		notifications: store.NewNotificationStore(),
		alerts:        store.NewAlertStore(20),
		queue:         &queueStub{},
		recorder:      &stateRecorder{},
	}
	cfg := config.PushConfig{
		UserDestination:   "/queue/user-{subject}",
		AdminDestination:  "/queue/admin-applications",
		ReconnectDelay:    20 * time.Millisecond,
		ConnectTimeout:    time.Second,
		AdminRefreshRPS:   rps,
		AdminRefreshBurst: burst,
	}
	f.listener = NewListener(cfg, f.dialer, f.session, f.notifications, f.queue, f.alerts, f.recorder, nil)
	return f
}

func (f *fixture) run(t *testing.T) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.listener.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})
	return cancel, done
}

func (f *fixture) waitState(t *testing.T, state State) {
	t.Helper()
	require.Eventually(t, func() bool { return f.listener.State() == state }, 2*time.Second, 5*time.Millisecond)
}

func TestUserNotificationIsPrepended(t *testing.T) {
	f := newFixture(t, 0)
	f.notifications.SettleFetch([]models.Notification{{ID: 1, Message: "older", IsRead: true}}, nil)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser)))
	f.run(t)
	f.waitState(t, StateConnected)

	publish(t, f.addr, "/queue/user-"+phone, `{"id":9,"message":"Your appointment was approved","isRead":false}`)

	require.Eventually(t, func() bool { return f.notifications.UnreadCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	snap := f.notifications.Snapshot()
	require.Len(t, snap.Notifications, 2)
	assert.Equal(t, int64(9), snap.Notifications[0].ID)
	assert.Equal(t, "Notification: Your appointment was approved", f.alerts.List()[0].Message)
	assert.Empty(t, f.queue.calls())
}

func TestAdminBroadcastRefreshesPendingQueue(t *testing.T) {
	f := newFixture(t, 0)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser, models.RoleAdmin)))
	f.run(t)
	f.waitState(t, StateConnected)

	for i := 0; i < 3; i++ {
		publish(t, f.addr, "/queue/admin-applications", "Budi & Siti, 3 June 09:00")
	}

	require.Eventually(t, func() bool { return len(f.alerts.List()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "New Application: Budi & Siti, 3 June 09:00", f.alerts.List()[0].Message)
	assert.Equal(t, []models.AppointmentStatus{models.StatusPending}, f.queue.calls())
	assert.Zero(t, f.notifications.UnreadCount())
}

func TestThrottledBroadcastsEndWithOneRefresh(t *testing.T) {
	f := newFixtureWithRefresh(t, 0, 10, 3)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser, models.RoleAdmin)))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.listener.handleAdmin(ctx, []byte("application"))
	}
	assert.Len(t, f.queue.calls(), 3)
	require.NotNil(t, f.listener.trailingC)

	select {
	case <-f.listener.trailingC:
		f.listener.flushRefresh(ctx)
	case <-time.After(2 * time.Second):
		t.Fatal("deferred refresh never became due")
	}
	assert.Len(t, f.queue.calls(), 4)
	assert.Nil(t, f.listener.trailingC)
	assert.Len(t, f.alerts.List(), 5)
}

func TestDeferredRefreshDroppedAfterSessionChange(t *testing.T) {
	f := newFixtureWithRefresh(t, 0, 10, 1)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser, models.RoleAdmin)))
	ctx := context.Background()

	f.listener.handleAdmin(ctx, []byte("first"))
	f.listener.handleAdmin(ctx, []byte("second"))
	require.NotNil(t, f.listener.trailingC)

	f.session.Logout(ctx)
	<-f.listener.trailingC
	f.listener.flushRefresh(ctx)
	assert.Len(t, f.queue.calls(), 1)
}

func TestThrottledBroadcastRefreshesAfterBurst(t *testing.T) {
	f := newFixtureWithRefresh(t, 0, 10, 1)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser, models.RoleAdmin)))
	f.run(t)
	f.waitState(t, StateConnected)

	conn, err := stomp.Dial("tcp", f.addr)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.Send("/queue/admin-applications", "text/plain", []byte("application")))
	}
	require.NoError(t, conn.Disconnect())

	require.Eventually(t, func() bool { return len(f.alerts.List()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(f.queue.calls()) >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestNonAdminIgnoresBroadcast(t *testing.T) {
	f := newFixture(t, 0)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser)))
	f.run(t)
	f.waitState(t, StateConnected)

	publish(t, f.addr, "/queue/admin-applications", "someone else's application")
	publish(t, f.addr, "/queue/user-"+phone, `{"id":1,"message":"ping"}`)

	require.Eventually(t, func() bool { return f.notifications.UnreadCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.queue.calls())
	assert.Len(t, f.alerts.List(), 1)
}

func TestListenerFollowsSession(t *testing.T) {
	f := newFixture(t, 0)
	f.run(t)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateDisconnected, f.listener.State())
	assert.Zero(t, f.dialer.attempts.Load())

	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser)))
	f.waitState(t, StateConnected)

	f.session.Logout(context.Background())
	f.waitState(t, StateDisconnected)
	attempts := f.dialer.attempts.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, attempts, f.dialer.attempts.Load())
}

func TestListenerReconnectsAfterFailure(t *testing.T) {
	f := newFixture(t, 2)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser)))
	f.run(t)

	f.waitState(t, StateConnected)
	assert.EqualValues(t, 3, f.dialer.attempts.Load())

	f.recorder.mu.Lock()
	states := append([]string(nil), f.recorder.states...)
	f.recorder.mu.Unlock()
	assert.Contains(t, states, string(StateConnecting))
	assert.Equal(t, string(StateConnected), states[len(states)-1])
}

func TestNoHandlingAfterRunReturns(t *testing.T) {
	f := newFixture(t, 0)
	require.True(t, f.session.Login(context.Background(), token(t, models.RoleUser)))
	cancel, done := f.run(t)
	f.waitState(t, StateConnected)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, StateDisconnected, f.listener.State())

	publish(t, f.addr, "/queue/user-"+phone, `{"id":2,"message":"late"}`)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, f.notifications.UnreadCount())
	assert.Empty(t, f.alerts.List())
}

func TestNewDialer(t *testing.T) {
	d, err := NewDialer("ws://localhost:8080/ws/websocket")
	require.NoError(t, err)
	assert.IsType(t, &WebSocketDialer{}, d)

	d, err = NewDialer("tcp://127.0.0.1:61613")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:61613", d.(*TCPDialer).Addr)

	_, err = NewDialer("http://localhost")
	assert.Error(t, err)
}
