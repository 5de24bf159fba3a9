package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

type notificationRepoStub struct {
	callCounter
	items    []models.Notification
	gate     chan struct{}
	listGate chan struct{}
	markErr  error
}

func (s *notificationRepoStub) List(ctx context.Context) ([]models.Notification, error) {
	s.hit("list")
	if s.listGate != nil {
		<-s.listGate
	}
	return s.items, nil
}

func (s *notificationRepoStub) MarkAllRead(ctx context.Context) error {
	s.hit("mark")
	if s.gate != nil {
		<-s.gate
	}
	return s.markErr
}

func TestNotificationFetch(t *testing.T) {
	repo := &notificationRepoStub{items: []models.Notification{
		{ID: 2, Message: "Your appointment was approved"},
		{ID: 1, Message: "Application received", IsRead: true},
	}}
	commands, _ := newTestCommands(t)
	svc := NewNotificationService(repo, store.NewNotificationStore(), commands, nil)

	require.NoError(t, waitTicket(t, svc.Fetch(context.Background())))
	snap := svc.Snapshot()
	assert.Len(t, snap.Notifications, 2)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, store.StatusSucceeded, snap.Fetch.Status)
}

func TestMarkAllReadKeepsItemsPushedInFlight(t *testing.T) {
	repo := &notificationRepoStub{
		items: []models.Notification{{ID: 1, Message: "first"}, {ID: 2, Message: "second"}},
		gate:  make(chan struct{}),
	}
	commands, _ := newTestCommands(t)
	notifications := store.NewNotificationStore()
	svc := NewNotificationService(repo, notifications, commands, nil)
	require.NoError(t, waitTicket(t, svc.Fetch(context.Background())))

	ticket := svc.MarkAllRead(context.Background())
	require.Eventually(t, func() bool { return repo.count("mark") == 1 }, time.Second, 5*time.Millisecond)
	notifications.AddNotification(models.Notification{ID: 3, Message: "pushed"})
	close(repo.gate)
	require.NoError(t, waitTicket(t, ticket))

	snap := svc.Snapshot()
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, int64(3), snap.Notifications[0].ID)
	assert.False(t, snap.Notifications[0].IsRead)
}

func TestMarkAllReadFailureKeepsUnread(t *testing.T) {
	repo := &notificationRepoStub{
		items:   []models.Notification{{ID: 1, Message: "first"}},
		markErr: appErrors.Clone(appErrors.ErrInternal, "server unavailable"),
	}
	commands, alerts := newTestCommands(t)
	svc := NewNotificationService(repo, store.NewNotificationStore(), commands, nil)
	require.NoError(t, waitTicket(t, svc.Fetch(context.Background())))

	require.Error(t, waitTicket(t, svc.MarkAllRead(context.Background())))
	snap := svc.Snapshot()
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, store.StatusFailed, snap.MarkRead.Status)
	assert.Equal(t, "server unavailable", alerts.List()[0].Message)
}
