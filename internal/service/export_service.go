package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/export"
)

var queueHeaders = []string{"ID", "Applicant", "Groom", "Bride", "Witnesses", "Start", "Status", "Document"}

// ExportResult is a rendered export ready to be sent.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the administrator's loaded queue for printing.
type ExportService struct {
	queue  *store.AdminQueueStore
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(queue *store.AdminQueueStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{queue: queue, now: time.Now, logger: logger}
}

// ExportQueue renders the queue held in memory. A status in req must match
// the loaded filter; the view fetches first when it changes the filter.
func (s *ExportService) ExportQueue(req dto.QueueExportRequest) (*ExportResult, error) {
	exporter, ok := export.ForFormat(strings.ToLower(req.Format))
	if !ok {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "unsupported export format", map[string]string{"format": "must be one of csv pdf"})
	}
	snap := s.queue.Snapshot()
	status := models.AppointmentStatus(strings.ToUpper(string(req.Status)))
	if status != "" && status != snap.Filter {
		return nil, appErrors.Clone(appErrors.ErrPrecondition, fmt.Sprintf("the loaded queue holds %s appointments, fetch %s first", filterLabel(snap.Filter), status))
	}

	data, err := exporter.Render(queueDataset(snap))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	filename := fmt.Sprintf("appointments_%s_%s.%s", strings.ToLower(filterLabel(snap.Filter)), s.now().UTC().Format("20060102_150405"), exporter.Extension())
	s.logger.Info("queue exported", zap.String("filename", filename), zap.Int("rows", len(snap.Appointments)))
	return &ExportResult{Filename: filename, ContentType: exporter.ContentType(), Data: data}, nil
}

func filterLabel(status models.AppointmentStatus) string {
	if status == "" {
		return "NONE"
	}
	return string(status)
}

func queueDataset(snap store.AdminQueueSnapshot) export.Dataset {
	rows := make([]map[string]string, 0, len(snap.Appointments))
	for _, a := range snap.Appointments {
		witnesses := make([]string, 0, len(a.Witnesses))
		for _, w := range a.Witnesses {
			witnesses = append(witnesses, strings.TrimSpace(w.FirstName+" "+w.LastName))
		}
		start := ""
		if !a.StartTime.IsZero() {
			start = a.StartTime.Format("2006-01-02 15:04")
		}
		rows = append(rows, map[string]string{
			"ID":        strconv.FormatInt(a.ID, 10),
			"Applicant": a.ApplicantPhoneNumber,
			"Groom":     strings.TrimSpace(a.GroomFirstName + " " + a.GroomLastName),
			"Bride":     strings.TrimSpace(a.BrideFirstName + " " + a.BrideLastName),
			"Witnesses": strings.Join(witnesses, ", "),
			"Start":     start,
			"Status":    string(a.Status),
			"Document":  documentFilename(a.DocumentPath),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s appointments", filterLabel(snap.Filter)),
		Headers: queueHeaders,
		Rows:    rows,
	}
}
