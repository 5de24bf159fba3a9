package dto

import (
	"time"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// RejectRequest carries the reason an administrator declines an application.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// SlotGenerationRequest asks the API to generate a month of slots.
type SlotGenerationRequest struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

// ReportRequest selects the report window and rendering.
type ReportRequest struct {
	Format    models.ReportFormat `json:"format" validate:"required,oneof=pdf xlsx"`
	StartDate time.Time           `json:"startDate" validate:"required"`
	EndDate   time.Time           `json:"endDate" validate:"required,gtefield=StartDate"`
}

// QueueExportRequest renders the admin queue held in memory.
type QueueExportRequest struct {
	Format string                   `form:"format" validate:"required,oneof=csv pdf"`
	Status models.AppointmentStatus `form:"status"`
}
