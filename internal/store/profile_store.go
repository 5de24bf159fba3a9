package store

import (
	"sync"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// ProfileSnapshot is a point-in-time copy of the applicant profile.
type ProfileSnapshot struct {
	Profile *models.UserProfile `json:"profile,omitempty"`
	Fetch   OpState             `json:"fetch"`
	Update  OpState             `json:"update"`
}

// ProfileStore holds the signed-in user's profile.
type ProfileStore struct {
	mu      sync.RWMutex
	profile *models.UserProfile
	fetch   OpState
	update  OpState
	changes *Signal
}

// NewProfileStore constructs an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{fetch: idle(), update: idle(), changes: NewSignal()}
}

// Changes returns the store's change signal.
func (s *ProfileStore) Changes() *Signal {
	return s.changes
}

func (s *ProfileStore) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.changes.Notify()
}

// BeginFetch marks a fetch in flight.
func (s *ProfileStore) BeginFetch() {
	s.mutate(func() { s.fetch.begin() })
}

// SettleFetch stores the fetched profile.
func (s *ProfileStore) SettleFetch(profile *models.UserProfile, err error) {
	s.mutate(func() {
		s.fetch.settle(err)
		if err == nil && profile != nil {
			p := *profile
			s.profile = &p
		}
	})
}

// BeginUpdate marks an update in flight.
func (s *ProfileStore) BeginUpdate() {
	s.mutate(func() { s.update.begin() })
}

// SettleUpdate stores the updated profile.
func (s *ProfileStore) SettleUpdate(profile *models.UserProfile, err error) {
	s.mutate(func() {
		s.update.settle(err)
		if err == nil && profile != nil {
			p := *profile
			if p.PhoneNumber == "" && s.profile != nil {
				p.PhoneNumber = s.profile.PhoneNumber
			}
			s.profile = &p
		}
	})
}

// Profile returns a copy of the held profile, nil before the first fetch.
func (s *ProfileStore) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Snapshot copies the store state.
func (s *ProfileStore) Snapshot() ProfileSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := ProfileSnapshot{Fetch: s.fetch, Update: s.update}
	if s.profile != nil {
		p := *s.profile
		out.Profile = &p
	}
	return out
}

// Reset drops everything, used when the session ends.
func (s *ProfileStore) Reset() {
	s.mutate(func() {
		s.profile = nil
		s.fetch, s.update = idle(), idle()
	})
}
