package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/repository"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

type adminRepository interface {
	ListByStatus(ctx context.Context, status models.AppointmentStatus) ([]models.Appointment, error)
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, reason string) error
	Complete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) error
	GenerateSlots(ctx context.Context, req dto.SlotGenerationRequest) (string, error)
	Report(ctx context.Context, req dto.ReportRequest) (*repository.Binary, error)
}

type documentRepository interface {
	Document(ctx context.Context, id int64) (*repository.Binary, error)
}

// AdminService runs the administrator's queue commands.
type AdminService struct {
	repo      adminRepository
	documents documentRepository
	queue     *store.AdminQueueStore
	storage   downloadStorage
	commands  *Commands
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, documents documentRepository, queue *store.AdminQueueStore, storage downloadStorage, commands *Commands, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		repo:      repo,
		documents: documents,
		queue:     queue,
		storage:   storage,
		commands:  commands,
		validator: validate,
		logger:    logger,
	}
}

// Snapshot returns the queue state.
func (s *AdminService) Snapshot() store.AdminQueueSnapshot {
	return s.queue.Snapshot()
}

// FetchByStatus replaces the queue with the appointments in status.
func (s *AdminService) FetchByStatus(ctx context.Context, status models.AppointmentStatus) *jobs.Ticket {
	status = models.AppointmentStatus(strings.ToUpper(string(status)))
	if !status.Valid() {
		err := appErrors.WithFields(appErrors.ErrValidation, "invalid status filter", map[string]string{"status": "must be one of PENDING APPROVED REJECTED COMPLETED CANCELLED"})
		s.queue.SettleFetch(status, nil, err)
		return s.commands.Refuse(ctx, "admin.fetch", err)
	}
	s.queue.BeginFetch()
	abort := func(err error) { s.queue.SettleFetch(status, nil, err) }
	return s.commands.Run(ctx, "admin.fetch", abort, func(ctx context.Context) error {
		items, err := s.repo.ListByStatus(ctx, status)
		return s.commands.Settle(ctx, err, func() { s.queue.SettleFetch(status, items, err) })
	})
}

// Approve accepts a pending application.
func (s *AdminService) Approve(ctx context.Context, id int64) *jobs.Ticket {
	return s.transition(ctx, "admin.approve", id, models.StatusApproved, "Appointment approved", func(ctx context.Context) error {
		return s.repo.Approve(ctx, id)
	})
}

// Reject declines a pending application. A blank reason is refused locally.
func (s *AdminService) Reject(ctx context.Context, id int64, reason string) *jobs.Ticket {
	req := dto.RejectRequest{Reason: strings.TrimSpace(reason)}
	if err := s.validator.Struct(req); err != nil {
		appErr := invalidPayload(err, "a rejection reason is required")
		s.queue.SettleCommand(id, appErr)
		return s.commands.Refuse(ctx, "admin.reject", appErr)
	}
	return s.transition(ctx, "admin.reject", id, models.StatusRejected, "Appointment rejected", func(ctx context.Context) error {
		return s.repo.Reject(ctx, id, req.Reason)
	})
}

// Complete marks an approved appointment as held.
func (s *AdminService) Complete(ctx context.Context, id int64) *jobs.Ticket {
	return s.transition(ctx, "admin.complete", id, models.StatusCompleted, "Appointment marked as complete", func(ctx context.Context) error {
		return s.repo.Complete(ctx, id)
	})
}

// Cancel withdraws an appointment on the applicant's behalf.
func (s *AdminService) Cancel(ctx context.Context, id int64) *jobs.Ticket {
	return s.transition(ctx, "admin.cancel", id, models.StatusCancelled, "Appointment cancelled", func(ctx context.Context) error {
		return s.repo.Cancel(ctx, id)
	})
}

// transition refuses moves the held entry cannot make; entries not held are
// left to the server to judge.
func (s *AdminService) transition(ctx context.Context, name string, id int64, next models.AppointmentStatus, done string, call func(context.Context) error) *jobs.Ticket {
	if held, ok := s.queue.Get(id); ok && !held.Status.CanTransition(next) {
		err := appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("appointment %d is %s and cannot become %s", id, held.Status, next))
		s.queue.SettleCommand(id, err)
		return s.commands.Refuse(ctx, name, err)
	}
	s.queue.BeginCommand()
	abort := func(err error) { s.queue.SettleCommand(id, err) }
	return s.commands.Run(ctx, name, abort, func(ctx context.Context) error {
		err := call(ctx)
		err = s.commands.Settle(ctx, err, func() { s.queue.SettleCommand(id, err) })
		if err == nil {
			s.commands.Success(done)
		}
		return err
	})
}

// GenerateSlots creates a month of slots. The server skips existing slots.
func (s *AdminService) GenerateSlots(ctx context.Context, req dto.SlotGenerationRequest) *jobs.Ticket {
	if err := s.validator.Struct(req); err != nil {
		return s.commands.Refuse(ctx, "admin.generate_slots", invalidPayload(err, "invalid month"))
	}
	return s.commands.Run(ctx, "admin.generate_slots", nil, func(ctx context.Context) error {
		message, err := s.repo.GenerateSlots(ctx, req)
		if err != nil {
			return err
		}
		if message == "" {
			message = fmt.Sprintf("Slots generated for %04d-%02d", req.Year, req.Month)
		}
		s.commands.Success(message)
		return nil
	})
}

// DownloadReport saves the appointment report for a date range.
func (s *AdminService) DownloadReport(ctx context.Context, req dto.ReportRequest) (*models.Download, error) {
	req.Format = models.ReportFormat(strings.ToLower(string(req.Format)))
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid report request")
	}
	bin, err := s.repo.Report(ctx, req)
	if err != nil {
		return nil, err
	}
	return saveBinary(s.storage, bin, bin.Filename)
}

// DownloadDocument saves the document of an appointment in the queue.
func (s *AdminService) DownloadDocument(ctx context.Context, id int64) (*models.Download, error) {
	var documentPath string
	if held, ok := s.queue.Get(id); ok {
		documentPath = held.DocumentPath
	}
	return fetchDocument(ctx, s.documents.Document, s.storage, id, documentPath)
}
