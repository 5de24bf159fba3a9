package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

func queueItems(status models.AppointmentStatus, ids ...int64) []models.Appointment {
	out := make([]models.Appointment, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Appointment{ID: id, Status: status})
	}
	return out
}

func TestQueueLastSettledFetchWins(t *testing.T) {
	s := NewAdminQueueStore()

	s.BeginFetch()
	s.BeginFetch()
	s.SettleFetch(models.StatusApproved, queueItems(models.StatusApproved, 7, 8), nil)
	s.SettleFetch(models.StatusPending, queueItems(models.StatusPending, 1), nil)

	snap := s.Snapshot()
	assert.Equal(t, models.StatusPending, snap.Filter)
	assert.Equal(t, queueItems(models.StatusPending, 1), snap.Appointments)

	s.SettleFetch(models.StatusApproved, queueItems(models.StatusApproved, 7, 8), nil)
	snap = s.Snapshot()
	assert.Equal(t, models.StatusApproved, snap.Filter)
	assert.Len(t, snap.Appointments, 2)
}

func TestQueueFailedFetchKeepsList(t *testing.T) {
	s := NewAdminQueueStore()
	s.SettleFetch(models.StatusPending, queueItems(models.StatusPending, 1, 2), nil)
	s.SettleFetch(models.StatusApproved, nil, errors.New("down"))

	snap := s.Snapshot()
	assert.Equal(t, models.StatusPending, snap.Filter)
	assert.Len(t, snap.Appointments, 2)
	assert.Equal(t, StatusFailed, snap.Fetch.Status)
}

func TestQueueCommandRemovesEntry(t *testing.T) {
	s := NewAdminQueueStore()
	s.SettleFetch(models.StatusPending, queueItems(models.StatusPending, 1, 2, 3), nil)

	s.BeginCommand()
	s.SettleCommand(2, nil)
	snap := s.Snapshot()
	assert.Equal(t, queueItems(models.StatusPending, 1, 3), snap.Appointments)

	s.SettleCommand(3, errors.New("conflict"))
	_, ok := s.Get(3)
	assert.True(t, ok)
	assert.Equal(t, StatusFailed, s.Snapshot().Command.Status)
}

func TestQueueConcurrentSettlement(t *testing.T) {
	s := NewAdminQueueStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.StatusPending
			if i%2 == 0 {
				status = models.StatusApproved
			}
			s.BeginFetch()
			s.SettleFetch(status, queueItems(status, int64(i)), nil)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Appointments, 1)
	assert.Equal(t, snap.Filter, snap.Appointments[0].Status)
}
