package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/repository"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

type appointmentRepository interface {
	ListMine(ctx context.Context) ([]models.Appointment, error)
	AvailableSlots(ctx context.Context, year, month int) ([]models.TimeSlot, error)
	Create(ctx context.Context, req dto.BookingRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, id int64) (*models.Appointment, error)
	Document(ctx context.Context, id int64) (*repository.Binary, error)
}

// AppointmentService runs the applicant's appointment commands.
type AppointmentService struct {
	repo         appointmentRepository
	appointments *store.AppointmentStore
	profile      *store.ProfileStore
	storage      downloadStorage
	commands     *Commands
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(repo appointmentRepository, appointments *store.AppointmentStore, profile *store.ProfileStore, storage downloadStorage, commands *Commands, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:         repo,
		appointments: appointments,
		profile:      profile,
		storage:      storage,
		commands:     commands,
		validator:    validate,
		logger:       logger,
	}
}

// SlotDay is one day of the slot calendar.
type SlotDay struct {
	Day   int               `json:"day"`
	Slots []models.TimeSlot `json:"slots"`
}

// SlotCalendar groups the loaded month's open slots by day.
type SlotCalendar struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []SlotDay     `json:"days"`
	Fetch store.OpState `json:"fetch"`
}

// Snapshot returns the appointment state.
func (s *AppointmentService) Snapshot() store.AppointmentSnapshot {
	return s.appointments.Snapshot()
}

// Calendar returns the open slots of the loaded month, one entry per day that
// has any.
func (s *AppointmentService) Calendar() SlotCalendar {
	snap := s.appointments.Snapshot()
	calendar := SlotCalendar{Year: snap.SlotsYear, Month: snap.SlotsMonth, Days: []SlotDay{}, Fetch: snap.SlotFetch}
	if snap.SlotsYear == 0 || snap.SlotsMonth == 0 {
		return calendar
	}
	for _, day := range s.appointments.DaysWithSlots() {
		date := time.Date(snap.SlotsYear, time.Month(snap.SlotsMonth), day, 0, 0, 0, 0, time.Local)
		calendar.Days = append(calendar.Days, SlotDay{Day: day, Slots: s.appointments.SlotsOn(date)})
	}
	return calendar
}

// FetchMine reloads the applicant's appointments.
func (s *AppointmentService) FetchMine(ctx context.Context) *jobs.Ticket {
	s.appointments.BeginList()
	abort := func(err error) { s.appointments.SettleList(nil, err) }
	return s.commands.Run(ctx, "appointments.fetch_mine", abort, func(ctx context.Context) error {
		items, err := s.repo.ListMine(ctx)
		return s.commands.Settle(ctx, err, func() { s.appointments.SettleList(items, err) })
	})
}

// FetchAvailableSlots reloads the open slots of a month.
func (s *AppointmentService) FetchAvailableSlots(ctx context.Context, year, month int) *jobs.Ticket {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		err := appErrors.WithFields(appErrors.ErrValidation, "invalid month", map[string]string{"month": "must be a calendar month"})
		s.appointments.SettleSlots(year, month, nil, err)
		return s.commands.Refuse(ctx, "appointments.fetch_slots", err)
	}
	s.appointments.BeginSlots()
	abort := func(err error) { s.appointments.SettleSlots(year, month, nil, err) }
	return s.commands.Run(ctx, "appointments.fetch_slots", abort, func(ctx context.Context) error {
		slots, err := s.repo.AvailableSlots(ctx, year, month)
		return s.commands.Settle(ctx, err, func() { s.appointments.SettleSlots(year, month, slots, err) })
	})
}

// Book submits a booking once every local precondition holds. A refused
// booking never reaches the API.
func (s *AppointmentService) Book(ctx context.Context, req dto.BookingRequest) *jobs.Ticket {
	if err := s.checkBooking(&req); err != nil {
		s.appointments.SettleBooking(req.TimeSlotID, nil, err)
		return s.commands.Refuse(ctx, "appointments.book", err)
	}
	s.appointments.BeginBooking()
	abort := func(err error) { s.appointments.SettleBooking(req.TimeSlotID, nil, err) }
	return s.commands.Run(ctx, "appointments.book", abort, func(ctx context.Context) error {
		created, err := s.repo.Create(ctx, req)
		err = s.commands.Settle(ctx, err, func() { s.appointments.SettleBooking(req.TimeSlotID, created, err) })
		if err == nil {
			s.commands.Success("Appointment requested")
		}
		return err
	})
}

func (s *AppointmentService) checkBooking(req *dto.BookingRequest) error {
	if profile := s.profile.Profile(); !profile.Complete() {
		return appErrors.Clone(appErrors.ErrPrecondition, "complete your profile before booking an appointment")
	}
	req.SpouseFirstName = strings.TrimSpace(req.SpouseFirstName)
	req.SpouseLastName = strings.TrimSpace(req.SpouseLastName)
	for i := range req.Witnesses {
		req.Witnesses[i].FirstName = strings.TrimSpace(req.Witnesses[i].FirstName)
		req.Witnesses[i].LastName = strings.TrimSpace(req.Witnesses[i].LastName)
		req.Witnesses[i].Gender = models.Gender(strings.ToUpper(string(req.Witnesses[i].Gender)))
	}
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "invalid booking")
	}
	return nil
}

// Cancel withdraws one of the applicant's appointments. Entries held in a
// terminal state are refused locally.
func (s *AppointmentService) Cancel(ctx context.Context, id int64) *jobs.Ticket {
	if held, ok := s.appointments.Get(id); ok && !held.Status.CanTransition(models.StatusCancelled) {
		err := appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("appointment %d is %s and cannot be cancelled", id, held.Status))
		s.appointments.SettleCancel(id, err)
		return s.commands.Refuse(ctx, "appointments.cancel", err)
	}
	s.appointments.BeginCancel()
	abort := func(err error) { s.appointments.SettleCancel(id, err) }
	return s.commands.Run(ctx, "appointments.cancel", abort, func(ctx context.Context) error {
		_, err := s.repo.Cancel(ctx, id)
		err = s.commands.Settle(ctx, err, func() { s.appointments.SettleCancel(id, err) })
		if err == nil {
			s.commands.Success("Appointment cancelled")
		}
		return err
	})
}

// DownloadDocument saves the document attached to an appointment. The file is
// named after the stored document path when the appointment is held.
func (s *AppointmentService) DownloadDocument(ctx context.Context, id int64) (*models.Download, error) {
	return fetchDocument(ctx, s.repo.Document, s.storage, id, s.documentPath(id))
}

func (s *AppointmentService) documentPath(id int64) string {
	if held, ok := s.appointments.Get(id); ok {
		return held.DocumentPath
	}
	return ""
}

func fetchDocument(ctx context.Context, fetch func(context.Context, int64) (*repository.Binary, error), storage downloadStorage, id int64, documentPath string) (*models.Download, error) {
	bin, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	filename := documentFilename(documentPath)
	if filename == "" {
		filename = bin.Filename
	}
	if filename == "" {
		filename = fmt.Sprintf("appointment-%d-document", id)
	}
	return saveBinary(storage, bin, filename)
}
