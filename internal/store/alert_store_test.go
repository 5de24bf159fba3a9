package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

func TestAlertStoreBoundedNewestFirst(t *testing.T) {
	s := NewAlertStore(2)
	s.Push(models.AlertInfo, "one")
	second := s.Push(models.AlertSuccess, "two")
	third := s.Push(models.AlertError, "three")

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, third.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	assert.True(t, s.Dismiss(third.ID))
	assert.False(t, s.Dismiss(third.ID))
	assert.Len(t, s.List(), 1)
}

func TestSignalCoalescesTicks(t *testing.T) {
	sig := NewSignal()
	ch, cancel := sig.Subscribe()

	sig.Notify()
	sig.Notify()
	assert.EqualValues(t, 2, sig.Version())

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected tick")
	}
	select {
	case <-ch:
		t.Fatal("ticks should coalesce")
	default:
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	sig.Notify()
}
