package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

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

type appointmentService interface {
	Snapshot() store.AppointmentSnapshot
	Calendar() service.SlotCalendar
	FetchMine(ctx context.Context) *jobs.Ticket
	FetchAvailableSlots(ctx context.Context, year, month int) *jobs.Ticket
	Book(ctx context.Context, req dto.BookingRequest) *jobs.Ticket
	Cancel(ctx context.Context, id int64) *jobs.Ticket
	DownloadDocument(ctx context.Context, id int64) (*models.Download, error)
}

// AppointmentHandler exposes the applicant's appointments and slots.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler creates a new handler.
func NewAppointmentHandler(svc appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

func (h *AppointmentHandler) view() interface{} {
	return h.service.Snapshot()
}

func (h *AppointmentHandler) calendar() interface{} {
	return h.service.Calendar()
}

// List godoc
// @Summary Applicant appointments
// @Description Returns the appointment store: list, slots and operation statuses
// @Tags Appointments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.view(), middleware.ExtractMeta(c))
}

// Refresh godoc
// @Summary Reload the applicant's appointments
// @Tags Appointments
// @Produce json
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Router /appointments/refresh [post]
func (h *AppointmentHandler) Refresh(c *gin.Context) {
	respondTicket(c, h.service.FetchMine(c.Request.Context()), h.view)
}

// Slots godoc
// @Summary Open slots by day
// @Description Without year and month the loaded month is returned; with them the month is fetched
// @Tags Appointments
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month 1-12"
// @Param wait query bool false "Wait for the command to settle"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /slots [get]
func (h *AppointmentHandler) Slots(c *gin.Context) {
	if c.Query("year") == "" && c.Query("month") == "" {
		response.JSON(c, http.StatusOK, h.calendar(), middleware.ExtractMeta(c))
		return
	}
	year, errYear := strconv.Atoi(c.Query("year"))
	month, errMonth := strconv.Atoi(c.Query("month"))
	if errYear != nil || errMonth != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year and month must be numbers"))
		return
	}
	respondTicket(c, h.service.FetchAvailableSlots(c.Request.Context(), year, month), h.calendar)
}

// Book godoc
// @Summary Book a slot
// @Description Multipart form: a "request" JSON part and the "file" document
// @Tags Appointments
// @Accept mpfd
// @Produce json
// @Param request formData string true "Booking JSON"
// @Param file formData file true "Supporting document"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req dto.BookingRequest
	if err := json.Unmarshal([]byte(c.PostForm("request")), &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	if header, err := c.FormFile("file"); err == nil {
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable document"))
			return
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable document"))
			return
		}
		req.Document = &dto.Attachment{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	respondTicket(c, h.service.Book(c.Request.Context(), req), h.view)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Param wait query bool false "Wait for the command to settle"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	respondTicket(c, h.service.Cancel(c.Request.Context(), id), h.view)
}

// Document godoc
// @Summary Download the appointment document
// @Description Saves the document to the downloads directory
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/document [get]
func (h *AppointmentHandler) Document(c *gin.Context) {
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
