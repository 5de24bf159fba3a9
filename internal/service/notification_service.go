package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkAllRead(ctx context.Context) error
}

// NotificationService loads and acknowledges the notification feed.
type NotificationService struct {
	repo          notificationRepository
	notifications *store.NotificationStore
	commands      *Commands
	logger        *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, notifications *store.NotificationStore, commands *Commands, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, notifications: notifications, commands: commands, logger: logger}
}

// Snapshot returns the feed state.
func (s *NotificationService) Snapshot() store.NotificationSnapshot {
	return s.notifications.Snapshot()
}

// Fetch reloads the feed.
func (s *NotificationService) Fetch(ctx context.Context) *jobs.Ticket {
	s.notifications.BeginFetch()
	abort := func(err error) { s.notifications.SettleFetch(nil, err) }
	return s.commands.Run(ctx, "notifications.fetch", abort, func(ctx context.Context) error {
		items, err := s.repo.List(ctx)
		return s.commands.Settle(ctx, err, func() { s.notifications.SettleFetch(items, err) })
	})
}

// MarkAllRead acknowledges the items held now. Items pushed while the call is
// in flight stay unread.
func (s *NotificationService) MarkAllRead(ctx context.Context) *jobs.Ticket {
	mark := s.notifications.BeginMarkAllRead()
	abort := func(err error) { s.notifications.SettleMarkAllRead(mark, err) }
	return s.commands.Run(ctx, "notifications.mark_all_read", abort, func(ctx context.Context) error {
		err := s.repo.MarkAllRead(ctx)
		return s.commands.Settle(ctx, err, func() { s.notifications.SettleMarkAllRead(mark, err) })
	})
}
