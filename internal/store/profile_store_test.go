package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

func TestProfileStoreUpdateKeepsPhoneNumber(t *testing.T) {
	s := NewProfileStore()
	assert.Nil(t, s.Profile())

	s.BeginFetch()
	assert.Equal(t, StatusLoading, s.Snapshot().Fetch.Status)
	s.SettleFetch(&models.UserProfile{PhoneNumber: "08123456789"}, nil)

	s.BeginUpdate()
	s.SettleUpdate(&models.UserProfile{FirstName: "Budi", LastName: "Santoso", Gender: models.GenderMale}, nil)

	p := s.Profile()
	require.NotNil(t, p)
	assert.Equal(t, "08123456789", p.PhoneNumber)
	assert.True(t, p.Complete())
	assert.Equal(t, StatusSucceeded, s.Snapshot().Update.Status)
}

func TestProfileStoreFailedUpdateKeepsProfile(t *testing.T) {
	s := NewProfileStore()
	s.SettleFetch(&models.UserProfile{PhoneNumber: "08123456789", FirstName: "Budi"}, nil)

	s.SettleUpdate(nil, appErrors.WithFields(appErrors.ErrValidation, "", map[string]string{"gender": "required"}))

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Update.Status)
	assert.Equal(t, "required", snap.Update.Error.Fields["gender"])
	assert.Equal(t, "Budi", snap.Profile.FirstName)
}

func TestProfileStoreCopiesAndResets(t *testing.T) {
	s := NewProfileStore()
	changes, unsubscribe := s.Changes().Subscribe()
	defer unsubscribe()

	s.SettleFetch(&models.UserProfile{FirstName: "Budi"}, nil)
	<-changes
	s.Profile().FirstName = "changed"
	assert.Equal(t, "Budi", s.Profile().FirstName)

	s.SettleFetch(nil, errors.New("offline"))
	assert.Equal(t, "Budi", s.Profile().FirstName)

	s.Reset()
	assert.Nil(t, s.Profile())
	assert.Equal(t, StatusIdle, s.Snapshot().Fetch.Status)
}
