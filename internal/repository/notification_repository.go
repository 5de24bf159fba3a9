package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// NotificationRepository lists and acknowledges notifications.
type NotificationRepository struct {
	client *APIClient
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(client *APIClient) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// List returns the caller's notifications in server order.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	var items []models.Notification
	if err := r.client.doJSON(ctx, "notifications.list", http.MethodGet, "/notifications", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkAllRead acknowledges every notification server side.
func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	return r.client.doJSON(ctx, "notifications.mark_all_read", http.MethodPost, "/notifications/mark-as-read", nil, nil, nil)
}
