package store

import (
	"sync"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// NotificationSnapshot is a point-in-time copy of the notification feed.
type NotificationSnapshot struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
	Fetch         OpState               `json:"fetch"`
	MarkRead      OpState               `json:"markRead"`
}

type notificationEntry struct {
	seq  uint64
	item models.Notification
}

// NotificationStore holds the feed newest first. The unread count is derived
// from the list on every read.
type NotificationStore struct {
	mu       sync.RWMutex
	entries  []notificationEntry
	seq      uint64
	fetch    OpState
	markRead OpState
	changes  *Signal
}

// NewNotificationStore constructs an empty feed.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{fetch: idle(), markRead: idle(), changes: NewSignal()}
}

// Changes returns the store's change signal.
func (s *NotificationStore) Changes() *Signal {
	return s.changes
}

func (s *NotificationStore) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.changes.Notify()
}

func (s *NotificationStore) wrap(item models.Notification) notificationEntry {
	s.seq++
	return notificationEntry{seq: s.seq, item: item}
}

// BeginFetch marks a fetch in flight.
func (s *NotificationStore) BeginFetch() {
	s.mutate(func() { s.fetch.begin() })
}

// SettleFetch replaces the feed with items in server order.
func (s *NotificationStore) SettleFetch(items []models.Notification, err error) {
	s.mutate(func() {
		s.fetch.settle(err)
		if err != nil {
			return
		}
		entries := make([]notificationEntry, 0, len(items))
		for _, item := range items {
			entries = append(entries, s.wrap(item))
		}
		s.entries = entries
	})
}

// BeginMarkAllRead marks the acknowledgement in flight and returns the
// watermark of the items it covers.
func (s *NotificationStore) BeginMarkAllRead() uint64 {
	var mark uint64
	s.mutate(func() {
		s.markRead.begin()
		mark = s.seq
	})
	return mark
}

// SettleMarkAllRead marks read every item held when the acknowledgement was
// dispatched. Items added afterwards keep their state.
func (s *NotificationStore) SettleMarkAllRead(mark uint64, err error) {
	s.mutate(func() {
		s.markRead.settle(err)
		if err != nil {
			return
		}
		for i := range s.entries {
			if s.entries[i].seq <= mark {
				s.entries[i].item.IsRead = true
			}
		}
	})
}

// AddNotification prepends a pushed item.
func (s *NotificationStore) AddNotification(item models.Notification) {
	s.mutate(func() {
		s.entries = append([]notificationEntry{s.wrap(item)}, s.entries...)
	})
}

// UnreadCount counts the unread items held.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread()
}

func (s *NotificationStore) unread() int {
	n := 0
	for _, e := range s.entries {
		if !e.item.IsRead {
			n++
		}
	}
	return n
}

// Snapshot copies the store state.
func (s *NotificationStore) Snapshot() NotificationSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Notification, len(s.entries))
	for i, e := range s.entries {
		items[i] = e.item
	}
	return NotificationSnapshot{
		Notifications: items,
		UnreadCount:   s.unread(),
		Fetch:         s.fetch,
		MarkRead:      s.markRead,
	}
}

// Reset drops everything, used when the session ends.
func (s *NotificationStore) Reset() {
	s.mutate(func() {
		s.entries = nil
		s.fetch, s.markRead = idle(), idle()
	})
}
