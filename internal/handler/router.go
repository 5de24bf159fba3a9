package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/middleware"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// Handlers groups every console handler.
type Handlers struct {
	Session      *SessionHandler
	Profile      *ProfileHandler
	Appointment  *AppointmentHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
	Metrics      *MetricsHandler
}

// Register mounts the console routes on r. Everything except health,
// metrics and the login endpoints needs a session; /admin needs ROLE_ADMIN.
func Register(r gin.IRouter, h Handlers, sessions sessionReader) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	r.GET("/session", h.Session.Current)
	r.POST("/session/otp", h.Session.RequestOTP)
	r.POST("/session/verify", h.Session.VerifyOTP)
	r.POST("/session/logout", h.Session.Logout)

	r.GET("/alerts", h.Notification.Alerts)
	r.DELETE("/alerts/:id", h.Notification.DismissAlert)

	authed := r.Group("/")
	authed.Use(middleware.RequireSession(sessions), middleware.WithResponseMeta())

	authed.GET("/profile", h.Profile.Get)
	authed.PUT("/profile", h.Profile.Update)

	authed.GET("/appointments", h.Appointment.List)
	authed.POST("/appointments", h.Appointment.Book)
	authed.POST("/appointments/refresh", h.Appointment.Refresh)
	authed.POST("/appointments/:id/cancel", h.Appointment.Cancel)
	authed.GET("/appointments/:id/document", h.Appointment.Document)
	authed.GET("/slots", h.Appointment.Slots)

	authed.GET("/notifications", h.Notification.List)
	authed.POST("/notifications/read", h.Notification.MarkAllRead)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/queue", h.Admin.Queue)
	admin.GET("/queue/export", h.Admin.Export)
	admin.POST("/queue/:id/approve", h.Admin.Approve)
	admin.POST("/queue/:id/reject", h.Admin.Reject)
	admin.POST("/queue/:id/complete", h.Admin.Complete)
	admin.POST("/queue/:id/cancel", h.Admin.Cancel)
	admin.GET("/queue/:id/document", h.Admin.Document)
	admin.POST("/slots/generate", h.Admin.GenerateSlots)
	admin.GET("/reports", h.Admin.Report)
}
