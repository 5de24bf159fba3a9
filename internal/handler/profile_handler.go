package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/middleware"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

type profileService interface {
	Snapshot() store.ProfileSnapshot
	Fetch(ctx context.Context) *jobs.Ticket
	Update(ctx context.Context, req dto.ProfileUpdateRequest) *jobs.Ticket
}

// ProfileHandler exposes the applicant profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler creates a new handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

func (h *ProfileHandler) view() interface{} {
	return h.service.Snapshot()
}

// Get godoc
// @Summary Applicant profile
// @Tags Profile
// @Produce json
// @Param refresh query bool false "Reload from the API first"
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		respondTicket(c, h.service.Fetch(c.Request.Context()), h.view)
		return
	}
	response.JSON(c, http.StatusOK, h.view(), middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Complete or edit the profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.ProfileUpdateRequest true "Profile"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req dto.ProfileUpdateRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	respondTicket(c, h.service.Update(c.Request.Context(), req), h.view)
}
