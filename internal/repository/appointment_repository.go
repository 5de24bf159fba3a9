package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

// AppointmentRepository covers the self-service appointment endpoints.
type AppointmentRepository struct {
	client *APIClient
}

// NewAppointmentRepository creates a new instance of AppointmentRepository.
func NewAppointmentRepository(client *APIClient) *AppointmentRepository {
	return &AppointmentRepository{client: client}
}

// ListMine returns the caller's appointments in server order.
func (r *AppointmentRepository) ListMine(ctx context.Context) ([]models.Appointment, error) {
	var items []models.Appointment
	if err := r.client.doJSON(ctx, "appointments.list_mine", http.MethodGet, "/appointments/my-appointments", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AvailableSlots returns the open slots of a calendar month.
func (r *AppointmentRepository) AvailableSlots(ctx context.Context, year, month int) ([]models.TimeSlot, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("month", strconv.Itoa(month))
	var slots []models.TimeSlot
	if err := r.client.doJSON(ctx, "appointments.available_slots", http.MethodGet, "/appointments/available-slots", query, nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Create books a slot. The metadata travels as the "request" JSON part and
// the document as the "file" part.
func (r *AppointmentRepository) Create(ctx context.Context, req dto.BookingRequest) (*models.Appointment, error) {
	if req.Document == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document is required")
	}
	body, contentType, err := encodeBooking(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode booking")
	}
	resp, err := r.client.do(ctx, call{
		op:          "appointments.create",
		method:      http.MethodPost,
		path:        "/appointments",
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var created models.Appointment
	if err := decodeInto(resp.Body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func encodeBooking(req dto.BookingRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	meta, err := json.Marshal(req.RequestPart())
	if err != nil {
		return nil, "", err
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="request"`)
	header.Set("Content-Type", "application/json")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(meta); err != nil {
		return nil, "", err
	}

	contentType := req.Document.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header = textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Document.Filename))
	header.Set("Content-Type", contentType)
	part, err = w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Document.Data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// Cancel withdraws one of the caller's appointments. The answer may carry the
// updated appointment or only a message; a nil appointment means the latter.
func (r *AppointmentRepository) Cancel(ctx context.Context, id int64) (*models.Appointment, error) {
	var updated models.Appointment
	if err := r.client.doJSON(ctx, "appointments.cancel", http.MethodPost, idPath("/appointments/%d/cancel", id), nil, nil, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		return nil, nil
	}
	return &updated, nil
}

// Document streams the document attached to an appointment.
func (r *AppointmentRepository) Document(ctx context.Context, id int64) (*Binary, error) {
	return r.client.download(ctx, "appointments.document", idPath("/appointments/%d/document", id), nil)
}
