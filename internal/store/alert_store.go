package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

const defaultAlertCapacity = 50

// AlertStore is the bounded feed of transient, dismissable messages. Newest
// alerts come first; the oldest are dropped past capacity.
type AlertStore struct {
	mu       sync.RWMutex
	alerts   []models.Alert
	capacity int
	now      func() time.Time
	changes  *Signal
}

// NewAlertStore constructs a feed holding at most capacity alerts.
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = defaultAlertCapacity
	}
	return &AlertStore{capacity: capacity, now: time.Now, changes: NewSignal()}
}

// Changes returns the store's change signal.
func (s *AlertStore) Changes() *Signal {
	return s.changes
}

// Push adds an alert and returns it.
func (s *AlertStore) Push(level, message string) models.Alert {
	alert := models.Alert{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: models.Timestamp{Time: s.now().UTC()},
	}
	s.mu.Lock()
	s.alerts = append([]models.Alert{alert}, s.alerts...)
	if len(s.alerts) > s.capacity {
		s.alerts = s.alerts[:s.capacity]
	}
	s.mu.Unlock()
	s.changes.Notify()
	return alert
}

// Dismiss removes the alert with id and reports whether it was present.
func (s *AlertStore) Dismiss(id string) bool {
	s.mu.Lock()
	found := false
	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i:i], s.alerts[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.changes.Notify()
	}
	return found
}

// List copies the held alerts.
func (s *AlertStore) List() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Alert{}, s.alerts...)
}
