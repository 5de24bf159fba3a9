package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/middleware"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/service"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

type adminService interface {
	Snapshot() store.AdminQueueSnapshot
	FetchByStatus(ctx context.Context, status models.AppointmentStatus) *jobs.Ticket
	Approve(ctx context.Context, id int64) *jobs.Ticket
	Reject(ctx context.Context, id int64, reason string) *jobs.Ticket
	Complete(ctx context.Context, id int64) *jobs.Ticket
	Cancel(ctx context.Context, id int64) *jobs.Ticket
	GenerateSlots(ctx context.Context, req dto.SlotGenerationRequest) *jobs.Ticket
	DownloadReport(ctx context.Context, req dto.ReportRequest) (*models.Download, error)
	DownloadDocument(ctx context.Context, id int64) (*models.Download, error)
}

type exportService interface {
	ExportQueue(req dto.QueueExportRequest) (*service.ExportResult, error)
}

// AdminHandler exposes the administrator's queue and tools.
type AdminHandler struct {
	service adminService
	export  exportService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(svc adminService, export exportService) *AdminHandler {
	return &AdminHandler{service: svc, export: export}
}

func (h *AdminHandler) view() interface{} {
	return h.service.Snapshot()
}

// Queue godoc
// @Summary Administrator queue
// @Description Without status the held list is returned; with it the list is replaced by the server's
// @Tags Admin
// @Produce json
// @Param status query string false "PENDING, APPROVED, REJECTED, COMPLETED or CANCELLED"
// @Param wait query bool false "Wait for the command to settle"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/queue [get]
func (h *AdminHandler) Queue(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		response.JSON(c, http.StatusOK, h.view(), middleware.ExtractMeta(c))
		return
	}
	respondTicket(c, h.service.FetchByStatus(c.Request.Context(), models.AppointmentStatus(status)), h.view)
}

// Approve godoc
// @Summary Approve a pending application
// @Tags Admin
// @Produce json
// @Param id path int true "Appointment ID"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/queue/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Complete godoc
// @Summary Mark an approved appointment as held
// @Tags Admin
// @Produce json
// @Param id path int true "Appointment ID"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/queue/{id}/complete [post]
func (h *AdminHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Cancel godoc
// @Summary Cancel an appointment as administrator
// @Tags Admin
// @Produce json
// @Param id path int true "Appointment ID"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/queue/{id}/cancel [post]
func (h *AdminHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *AdminHandler) transition(c *gin.Context, run func(context.Context, int64) *jobs.Ticket) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	respondTicket(c, run(c.Request.Context(), id), h.view)
}

// Reject godoc
// @Summary Reject a pending application
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.RejectRequest true "Reason"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/queue/{id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req dto.RejectRequest
	if !bindJSON(c, &req, "invalid rejection payload") {
		return
	}
	respondTicket(c, h.service.Reject(c.Request.Context(), id, req.Reason), h.view)
}

// Document godoc
// @Summary Download the document of a queued appointment
// @Tags Admin
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/queue/{id}/document [get]
func (h *AdminHandler) Document(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	download, err := h.service.DownloadDocument(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// GenerateSlots godoc
// @Summary Generate a month of slots
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.SlotGenerationRequest true "Year and month"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/slots/generate [post]
func (h *AdminHandler) GenerateSlots(c *gin.Context) {
	var req dto.SlotGenerationRequest
	if !bindJSON(c, &req, "invalid slot generation payload") {
		return
	}
	respondTicket(c, h.service.GenerateSlots(c.Request.Context(), req), nil)
}

// Report godoc
// @Summary Download the appointment report
// @Description Saves the server-rendered report to the downloads directory
// @Tags Admin
// @Produce json
// @Param format query string true "pdf or xlsx"
// @Param startDate query string true "YYYY-MM-DD"
// @Param endDate query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/reports [get]
func (h *AdminHandler) Report(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	req, err := query.ToRequest()
	if err != nil {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid report dates", map[string]string{"startDate": "use YYYY-MM-DD", "endDate": "use YYYY-MM-DD"}))
		return
	}
	download, err := h.service.DownloadReport(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// Export godoc
// @Summary Export the loaded queue
// @Description Renders the list currently held in memory as CSV or PDF
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param status query string false "Must match the loaded filter"
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Router /admin/queue/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	var req dto.QueueExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	result, err := h.export.ExportQueue(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
