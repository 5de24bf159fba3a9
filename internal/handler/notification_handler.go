package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/middleware"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

type notificationService interface {
	Snapshot() store.NotificationSnapshot
	Fetch(ctx context.Context) *jobs.Ticket
	MarkAllRead(ctx context.Context) *jobs.Ticket
}

type alertFeed interface {
	List() []models.Alert
	Dismiss(id string) bool
}

// NotificationHandler exposes the notification feed and transient alerts.
type NotificationHandler struct {
	service notificationService
	alerts  alertFeed
}

// NewNotificationHandler creates a new handler.
func NewNotificationHandler(svc notificationService, alerts alertFeed) *NotificationHandler {
	return &NotificationHandler{service: svc, alerts: alerts}
}

func (h *NotificationHandler) view() interface{} {
	return h.service.Snapshot()
}

// List godoc
// @Summary Notification feed
// @Tags Notifications
// @Produce json
// @Param refresh query bool false "Reload from the API first"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		respondTicket(c, h.service.Fetch(c.Request.Context()), h.view)
		return
	}
	response.JSON(c, http.StatusOK, h.view(), middleware.ExtractMeta(c))
}

// MarkAllRead godoc
// @Summary Mark every held notification read
// @Tags Notifications
// @Produce json
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Router /notifications/read [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	respondTicket(c, h.service.MarkAllRead(c.Request.Context()), h.view)
}

// Alerts godoc
// @Summary Transient alerts, newest first
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *NotificationHandler) Alerts(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.alerts.List(), nil)
}

// DismissAlert godoc
// @Summary Dismiss an alert
// @Tags Notifications
// @Param id path string true "Alert ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /alerts/{id} [delete]
func (h *NotificationHandler) DismissAlert(c *gin.Context) {
	if !h.alerts.Dismiss(c.Param("id")) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "alert not found"))
		return
	}
	response.NoContent(c)
}
