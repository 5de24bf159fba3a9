package store

import (
	"sync"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// AdminQueueSnapshot is a point-in-time copy of the administrator's queue.
type AdminQueueSnapshot struct {
	Filter       models.AppointmentStatus `json:"filter,omitempty"`
	Appointments []models.Appointment     `json:"appointments"`
	Fetch        OpState                  `json:"fetch"`
	Command      OpState                  `json:"command"`
}

// AdminQueueStore holds one server-filtered list of appointments. Concurrent
// fetches are not sequenced: whichever settles last defines the list.
type AdminQueueStore struct {
	mu           sync.RWMutex
	filter       models.AppointmentStatus
	appointments []models.Appointment
	fetch        OpState
	command      OpState
	changes      *Signal
}

// NewAdminQueueStore constructs an empty queue.
func NewAdminQueueStore() *AdminQueueStore {
	return &AdminQueueStore{fetch: idle(), command: idle(), changes: NewSignal()}
}

// Changes returns the store's change signal.
func (s *AdminQueueStore) Changes() *Signal {
	return s.changes
}

func (s *AdminQueueStore) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.changes.Notify()
}

// BeginFetch marks a fetch in flight.
func (s *AdminQueueStore) BeginFetch() {
	s.mutate(func() { s.fetch.begin() })
}

// SettleFetch replaces the list with the items returned for status.
func (s *AdminQueueStore) SettleFetch(status models.AppointmentStatus, items []models.Appointment, err error) {
	s.mutate(func() {
		s.fetch.settle(err)
		if err == nil {
			s.filter = status
			s.appointments = cloneAppointments(items)
		}
	})
}

// BeginCommand marks an approve/reject/complete/cancel in flight.
func (s *AdminQueueStore) BeginCommand() {
	s.mutate(func() { s.command.begin() })
}

// SettleCommand removes id from the list on success; the entry no longer
// matches the active filter.
func (s *AdminQueueStore) SettleCommand(id int64, err error) {
	s.mutate(func() {
		s.command.settle(err)
		if err != nil {
			return
		}
		kept := make([]models.Appointment, 0, len(s.appointments))
		for _, a := range s.appointments {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		s.appointments = kept
	})
}

// Get returns the held appointment with id.
func (s *AdminQueueStore) Get(id int64) (models.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return models.Appointment{}, false
}

// Filter returns the status of the list currently held.
func (s *AdminQueueStore) Filter() models.AppointmentStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Snapshot copies the store state.
func (s *AdminQueueStore) Snapshot() AdminQueueSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AdminQueueSnapshot{
		Filter:       s.filter,
		Appointments: cloneAppointments(s.appointments),
		Fetch:        s.fetch,
		Command:      s.command,
	}
}

// Reset drops everything, used when the session ends.
func (s *AdminQueueStore) Reset() {
	s.mutate(func() {
		s.filter = ""
		s.appointments = nil
		s.fetch, s.command = idle(), idle()
	})
}
