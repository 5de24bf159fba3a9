package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

type sessionService interface {
	Session() models.Session
	Auth() store.AuthState
	RequestOTP(ctx context.Context, req dto.OTPRequest) *jobs.Ticket
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) *jobs.Ticket
	Logout(ctx context.Context)
}

// SessionHandler exposes the one-time password login.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

func (h *SessionHandler) view() interface{} {
	session := h.service.Session()
	return dto.SessionResponse{Active: session.Active(), Subject: session.Subject, Auth: h.service.Auth()}
}

// Current godoc
// @Summary Current session
// @Description Returns the signed-in subject and the login progress
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.view(), nil)
}

// RequestOTP godoc
// @Summary Request a one-time password
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.OTPRequest true "Phone number"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /session/otp [post]
func (h *SessionHandler) RequestOTP(c *gin.Context) {
	var req dto.OTPRequest
	if !bindJSON(c, &req, "invalid otp request") {
		return
	}
	respondTicket(c, h.service.RequestOTP(c.Request.Context(), req), h.view)
}

// VerifyOTP godoc
// @Summary Verify the one-time password and sign in
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.VerifyOTPRequest true "Phone number and code"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session/verify [post]
func (h *SessionHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !bindJSON(c, &req, "invalid verification payload") {
		return
	}
	respondTicket(c, h.service.VerifyOTP(c.Request.Context(), req), h.view)
}

// Logout godoc
// @Summary Sign out
// @Description Clears the session, the persisted token and every resource store
// @Tags Session
// @Success 204 {object} response.Envelope
// @Router /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context())
	response.NoContent(c)
}
