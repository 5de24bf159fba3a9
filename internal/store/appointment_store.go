package store

import (
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

// AppointmentSnapshot is a point-in-time copy of the applicant's view.
type AppointmentSnapshot struct {
	Appointments []models.Appointment `json:"appointments"`
	Slots        []models.TimeSlot    `json:"slots"`
	SlotsYear    int                  `json:"slotsYear,omitempty"`
	SlotsMonth   int                  `json:"slotsMonth,omitempty"`
	List         OpState              `json:"list"`
	SlotFetch    OpState              `json:"slotFetch"`
	Booking      OpState              `json:"booking"`
	Cancel       OpState              `json:"cancel"`
	FieldErrors  map[string]string    `json:"fieldErrors,omitempty"`
}

// AppointmentStore projects the applicant's own appointments and the open
// slots of one month. List, slot and booking operations carry independent
// statuses.
type AppointmentStore struct {
	mu           sync.RWMutex
	appointments []models.Appointment
	slots        []models.TimeSlot
	slotsYear    int
	slotsMonth   int
	list         OpState
	slotFetch    OpState
	booking      OpState
	cancel       OpState
	fieldErrors  map[string]string
	changes      *Signal
}

// NewAppointmentStore constructs an empty store.
func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{
		list:      idle(),
		slotFetch: idle(),
		booking:   idle(),
		cancel:    idle(),
		changes:   NewSignal(),
	}
}

// Changes returns the store's change signal.
func (s *AppointmentStore) Changes() *Signal {
	return s.changes
}

func (s *AppointmentStore) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.changes.Notify()
}

// BeginList marks a list fetch in flight.
func (s *AppointmentStore) BeginList() {
	s.mutate(func() { s.list.begin() })
}

// SettleList replaces the list with items, or records err and keeps it.
func (s *AppointmentStore) SettleList(items []models.Appointment, err error) {
	s.mutate(func() {
		s.list.settle(err)
		if err == nil {
			s.appointments = cloneAppointments(items)
		}
	})
}

// BeginSlots marks a slot fetch in flight.
func (s *AppointmentStore) BeginSlots() {
	s.mutate(func() { s.slotFetch.begin() })
}

// SettleSlots replaces the open slots with those of year/month.
func (s *AppointmentStore) SettleSlots(year, month int, slots []models.TimeSlot, err error) {
	s.mutate(func() {
		s.slotFetch.settle(err)
		if err == nil {
			s.slots = append([]models.TimeSlot(nil), slots...)
			s.slotsYear, s.slotsMonth = year, month
		}
	})
}

// BeginBooking marks a booking in flight.
func (s *AppointmentStore) BeginBooking() {
	s.mutate(func() { s.booking.begin() })
}

// SettleBooking appends the created appointment and drops the consumed slot,
// or records err together with any field-level messages it carries.
func (s *AppointmentStore) SettleBooking(slotID int64, created *models.Appointment, err error) {
	s.mutate(func() {
		s.booking.settle(err)
		if err != nil {
			s.fieldErrors = nil
			if appErr := appErrors.FromError(err); appErr.HasFields() {
				s.fieldErrors = copyFields(appErr.Fields)
			}
			return
		}
		s.fieldErrors = nil
		if created != nil {
			s.appointments = append(s.appointments, *created)
		}
		s.removeSlot(slotID)
	})
}

// BeginCancel marks a cancellation in flight.
func (s *AppointmentStore) BeginCancel() {
	s.mutate(func() { s.cancel.begin() })
}

// SettleCancel patches the status of id to CANCELLED in place. The entry
// stays in the list.
func (s *AppointmentStore) SettleCancel(id int64, err error) {
	s.mutate(func() {
		s.cancel.settle(err)
		if err != nil {
			return
		}
		for i := range s.appointments {
			if s.appointments[i].ID == id {
				s.appointments[i].Status = models.StatusCancelled
			}
		}
	})
}

// Get returns the held appointment with id.
func (s *AppointmentStore) Get(id int64) (models.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return models.Appointment{}, false
}

// Slot returns the held open slot with id.
func (s *AppointmentStore) Slot(id int64) (models.TimeSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range s.slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return models.TimeSlot{}, false
}

// SlotsOn returns the open slots starting on the calendar day of day, in
// start order.
func (s *AppointmentStore) SlotsOn(day time.Time) []models.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, m, d := day.Date()
	out := make([]models.TimeSlot, 0)
	for _, slot := range s.slots {
		sy, sm, sd := slot.StartTime.Date()
		if sy == y && sm == m && sd == d {
			out = append(out, slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime.Time) })
	return out
}

// DaysWithSlots lists the days of the loaded month that have an open slot.
func (s *AppointmentStore) DaysWithSlots() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int]struct{})
	for _, slot := range s.slots {
		seen[slot.StartTime.Day()] = struct{}{}
	}
	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Snapshot copies the store state.
func (s *AppointmentStore) Snapshot() AppointmentSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AppointmentSnapshot{
		Appointments: cloneAppointments(s.appointments),
		Slots:        append([]models.TimeSlot{}, s.slots...),
		SlotsYear:    s.slotsYear,
		SlotsMonth:   s.slotsMonth,
		List:         s.list,
		SlotFetch:    s.slotFetch,
		Booking:      s.booking,
		Cancel:       s.cancel,
		FieldErrors:  copyFields(s.fieldErrors),
	}
}

// Reset drops everything, used when the session ends.
func (s *AppointmentStore) Reset() {
	s.mutate(func() {
		s.appointments = nil
		s.slots = nil
		s.slotsYear, s.slotsMonth = 0, 0
		s.list, s.slotFetch, s.booking, s.cancel = idle(), idle(), idle(), idle()
		s.fieldErrors = nil
	})
}

func (s *AppointmentStore) removeSlot(id int64) {
	kept := make([]models.TimeSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.ID != id {
			kept = append(kept, slot)
		}
	}
	s.slots = kept
}

func cloneAppointments(items []models.Appointment) []models.Appointment {
	out := make([]models.Appointment, len(items))
	for i, a := range items {
		a.Witnesses = append([]models.Witness(nil), a.Witnesses...)
		out[i] = a
	}
	return out
}

func copyFields(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
