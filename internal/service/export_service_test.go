package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

func loadedQueue() *store.AdminQueueStore {
	queue := store.NewAdminQueueStore()
	queue.SettleFetch(models.StatusPending, []models.Appointment{{
		ID:                   5,
		ApplicantPhoneNumber: "08123456789",
		GroomFirstName:       "Budi",
		GroomLastName:        "Santoso",
		BrideFirstName:       "Siti",
		BrideLastName:        "Aminah",
		Witnesses: []models.Witness{
			{FirstName: "Andi", LastName: "W", Gender: models.GenderMale},
			{FirstName: "Rina", LastName: "K", Gender: models.GenderFemale},
		},
		StartTime:    models.Timestamp{Time: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)},
		Status:       models.StatusPending,
		DocumentPath: `C:\uploads\docs\ktp-5.pdf`,
	}}, nil)
	return queue
}

func TestExportQueueCSV(t *testing.T) {
	svc := NewExportService(loadedQueue(), nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

	result, err := svc.ExportQueue(dto.QueueExportRequest{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, "appointments_pending_20240601_100000.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Applicant,Groom,Bride,Witnesses,Start,Status,Document", lines[0])
	assert.Equal(t, `5,08123456789,Budi Santoso,Siti Aminah,"Andi W, Rina K",2024-06-03 09:00,PENDING,ktp-5.pdf`, lines[1])
}

func TestExportQueuePDF(t *testing.T) {
	svc := NewExportService(loadedQueue(), nil)
	result, err := svc.ExportQueue(dto.QueueExportRequest{Format: "pdf", Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestExportQueueRefusals(t *testing.T) {
	svc := NewExportService(loadedQueue(), nil)

	_, err := svc.ExportQueue(dto.QueueExportRequest{Format: "xlsx"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.ExportQueue(dto.QueueExportRequest{Format: "csv", Status: models.StatusApproved})
	assert.True(t, errors.Is(err, appErrors.ErrPrecondition))
}
