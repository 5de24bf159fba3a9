package dto

import (
	"time"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// Ticket states reported to the console.
const (
	TicketPending   = "pending"
	TicketSucceeded = "succeeded"
	TicketFailed    = "failed"
)

// TicketResponse describes a dispatched command.
type TicketResponse struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Status  string `json:"status"`
}

// SessionResponse is the console view of the session and login progress.
type SessionResponse struct {
	Active  bool            `json:"active"`
	Subject *models.Subject `json:"subject,omitempty"`
	Auth    interface{}     `json:"auth"`
}

// ReportQuery is the console query for a server-side report.
type ReportQuery struct {
	Format    string `form:"format"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// ToRequest parses the dates of the query, which are calendar days.
func (q ReportQuery) ToRequest() (ReportRequest, error) {
	req := ReportRequest{Format: models.ReportFormat(q.Format)}
	var err error
	if q.StartDate != "" {
		if req.StartDate, err = time.Parse("2006-01-02", q.StartDate); err != nil {
			return req, err
		}
	}
	if q.EndDate != "" {
		if req.EndDate, err = time.Parse("2006-01-02", q.EndDate); err != nil {
			return req, err
		}
	}
	return req, nil
}
