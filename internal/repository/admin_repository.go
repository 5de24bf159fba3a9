package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

const reportDateLayout = "2006-01-02"

// AdminRepository covers the administrative endpoints.
type AdminRepository struct {
	client *APIClient
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(client *APIClient) *AdminRepository {
	return &AdminRepository{client: client}
}

// ListByStatus returns the appointments the server filters by status.
func (r *AdminRepository) ListByStatus(ctx context.Context, status models.AppointmentStatus) ([]models.Appointment, error) {
	query := url.Values{}
	query.Set("status", string(status))
	var items []models.Appointment
	if err := r.client.doJSON(ctx, "admin.list", http.MethodGet, "/admin/appointments", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Approve moves a pending appointment to APPROVED.
func (r *AdminRepository) Approve(ctx context.Context, id int64) error {
	return r.client.doJSON(ctx, "admin.approve", http.MethodPost, idPath("/admin/appointments/%d/approve", id), nil, nil, nil)
}

// Reject declines a pending appointment with a reason.
func (r *AdminRepository) Reject(ctx context.Context, id int64, reason string) error {
	return r.client.doJSON(ctx, "admin.reject", http.MethodPost, idPath("/admin/appointments/%d/reject", id), nil,
		dto.RejectRequest{Reason: reason}, nil)
}

// Complete marks an approved appointment as held.
func (r *AdminRepository) Complete(ctx context.Context, id int64) error {
	return r.client.doJSON(ctx, "admin.complete", http.MethodPost, idPath("/admin/appointments/%d/complete", id), nil, nil, nil)
}

// Cancel withdraws an appointment on the applicant's behalf.
func (r *AdminRepository) Cancel(ctx context.Context, id int64) error {
	return r.client.doJSON(ctx, "admin.cancel", http.MethodPost, idPath("/admin/appointments/%d/cancel", id), nil, nil, nil)
}

type messageBody struct {
	Message string `json:"message"`
}

// GenerateSlots creates the slots of a month, skipping existing ones, and
// returns the server's summary message.
func (r *AdminRepository) GenerateSlots(ctx context.Context, req dto.SlotGenerationRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	resp, err := r.client.do(ctx, call{
		op:          "admin.generate_slots",
		method:      http.MethodPost,
		path:        "/admin/time-slots/generate",
		body:        bytes.NewReader(raw),
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out messageBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return "", nil
	}
	return out.Message, nil
}

// Report streams an appointment report for a date range.
func (r *AdminRepository) Report(ctx context.Context, req dto.ReportRequest) (*Binary, error) {
	query := url.Values{}
	query.Set("startDate", req.StartDate.Format(reportDateLayout))
	query.Set("endDate", req.EndDate.Format(reportDateLayout))
	bin, err := r.client.download(ctx, "admin.report", "/admin/reports/appointments."+string(req.Format), query)
	if err != nil {
		return nil, err
	}
	if bin.Filename == "" {
		bin.Filename = "appointments-report_" + query.Get("startDate") + "_to_" + query.Get("endDate") + "." + string(req.Format)
	}
	if bin.ContentType == "" {
		bin.ContentType = req.Format.ContentType()
	}
	return bin, nil
}
