package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/pkg/config"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/middleware/requestid"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type recordedCall struct {
	op     string
	status int
}

type callRecorder struct {
	calls []recordedCall
}

func (r *callRecorder) ObserveRemoteCall(op string, status int, _ time.Duration) {
	r.calls = append(r.calls, recordedCall{op: op, status: status})
}

func newFakeAPI(t *testing.T, register func(r *gin.Engine)) (*APIClient, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	register(engine)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	client := NewAPIClient(config.APIConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, staticToken("tok"), nil)
	return client, srv
}

func TestClientAddsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/users/me", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			gotReqID = c.GetHeader(requestid.HeaderKey)
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"firstName": "Ann", "lastName": "Lee", "gender": "FEMALE"}})
		})
	})
	recorder := &callRecorder{}
	client.SetObserver(recorder)

	ctx := requestid.NewContext(context.Background(), "req-1")
	profile, err := NewUserRepository(client).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "req-1", gotReqID)
	assert.True(t, profile.Complete())
	assert.Equal(t, []recordedCall{{op: "users.me", status: http.StatusOK}}, recorder.calls)
}

func TestClientOmitsBearerWithoutToken(t *testing.T) {
	var gotAuth string
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/auth/request-otp", func(c *gin.Context) {
		gotAuth = c.GetHeader("Authorization")
		c.JSON(http.StatusOK, gin.H{"message": "sent"})
	})
	srv := httptest.NewServer(engine)
	defer srv.Close()

	client := NewAPIClient(config.APIConfig{BaseURL: srv.URL}, staticToken(""), nil)
	require.NoError(t, NewAuthRepository(client).RequestOTP(context.Background(), "0812000111"))
	assert.Empty(t, gotAuth)
}

func TestClientDecodesValidationErrors(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/auth/verify-otp", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OTP", "errors": gin.H{"otp": "expired"}})
		})
	})

	_, err := NewAuthRepository(client).VerifyOTP(context.Background(), "0812000111", "123456")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "Invalid OTP", appErr.Message)
	assert.Equal(t, "expired", appErr.Fields["otp"])
	assert.NotEmpty(t, appErr.Payload)
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewAPIClient(config.APIConfig{BaseURL: url, Timeout: time.Second}, nil, nil)
	_, err := NewNotificationRepository(client).List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTransport))
	assert.Empty(t, appErrors.FromError(err).Payload)
}

func TestVerifyOTPReturnsAccessToken(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/auth/verify-otp", func(c *gin.Context) {
			var req dto.VerifyOTPRequest
			require.NoError(t, c.ShouldBindJSON(&req))
			assert.Equal(t, "0812000111", req.PhoneNumber)
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"accessToken": "jwt-token"}})
		})
	})

	token, err := NewAuthRepository(client).VerifyOTP(context.Background(), "0812000111", "123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
}

func TestCreateAppointmentSendsMultipart(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/appointments", func(c *gin.Context) {
			raw := c.PostForm("request")
			var meta map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(raw), &meta))
			assert.EqualValues(t, 42, meta["timeSlotId"])
			assert.Equal(t, "Ann", meta["spouseFirstName"])

			file, err := c.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "ktp.pdf", file.Filename)
			f, err := file.Open()
			require.NoError(t, err)
			content, _ := io.ReadAll(f)
			f.Close()
			assert.Equal(t, "%PDF-1.4", string(content))

			c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": 101, "status": "PENDING", "startTime": "2024-06-01T09:00:00"}})
		})
	})

	req := dto.BookingRequest{
		TimeSlotID:      42,
		SpouseFirstName: "Ann",
		SpouseLastName:  "Lee",
		Witnesses: []models.Witness{
			{FirstName: "Tom", LastName: "Roe", Gender: models.GenderMale},
			{FirstName: "Sue", LastName: "Ng", Gender: models.GenderFemale},
		},
		Document: &dto.Attachment{Filename: "ktp.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}
	created, err := NewAppointmentRepository(client).Create(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 101, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, 9, created.StartTime.Hour())
}

func TestAvailableSlotsQuery(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/appointments/available-slots", func(c *gin.Context) {
			assert.Equal(t, "2024", c.Query("year"))
			assert.Equal(t, "6", c.Query("month"))
			c.JSON(http.StatusOK, gin.H{"data": []gin.H{{"id": 1, "startTime": "2024-06-03T09:00:00"}, {"id": 2, "startTime": "2024-06-03T09:30:00"}}})
		})
	})

	slots, err := NewAppointmentRepository(client).AvailableSlots(context.Background(), 2024, 6)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.EqualValues(t, 2, slots[1].ID)
}

func TestCancelWithMessageOnlyAnswer(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.POST("/appointments/:id/cancel", func(c *gin.Context) {
			assert.Equal(t, "7", c.Param("id"))
			c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled"})
		})
	})

	updated, err := NewAppointmentRepository(client).Cancel(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestAdminEndpoints(t *testing.T) {
	var rejectReason string
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/admin/appointments", func(c *gin.Context) {
			assert.Equal(t, "PENDING", c.Query("status"))
			c.JSON(http.StatusOK, gin.H{"data": []gin.H{{"id": 5, "status": "PENDING"}}})
		})
		r.POST("/admin/appointments/:id/reject", func(c *gin.Context) {
			var body dto.RejectRequest
			require.NoError(t, c.ShouldBindJSON(&body))
			rejectReason = body.Reason
			c.JSON(http.StatusOK, gin.H{"message": "rejected"})
		})
		r.POST("/admin/appointments/:id/approve", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Access Denied"})
		})
		r.POST("/admin/time-slots/generate", func(c *gin.Context) {
			var body dto.SlotGenerationRequest
			require.NoError(t, c.ShouldBindJSON(&body))
			assert.Equal(t, 7, body.Month)
			c.JSON(http.StatusOK, gin.H{"message": "Generated 120 slots"})
		})
	})
	repo := NewAdminRepository(client)
	ctx := context.Background()

	items, err := repo.ListByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, repo.Reject(ctx, 5, "missing document"))
	assert.Equal(t, "missing document", rejectReason)

	err = repo.Approve(ctx, 5)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	msg, err := repo.GenerateSlots(ctx, dto.SlotGenerationRequest{Year: 2024, Month: 7})
	require.NoError(t, err)
	assert.Equal(t, "Generated 120 slots", msg)
}

func TestReportDownload(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine) {
		r.GET("/admin/reports/appointments.xlsx", func(c *gin.Context) {
			assert.Equal(t, "2024-05-01", c.Query("startDate"))
			assert.Equal(t, "2024-05-31", c.Query("endDate"))
			c.Data(http.StatusOK, "", []byte("sheet"))
		})
		r.GET("/appointments/:id/document", func(c *gin.Context) {
			c.Header("Content-Disposition", `attachment; filename="ktp.pdf"`)
			c.Data(http.StatusOK, "application/pdf", []byte("%PDF"))
		})
	})
	ctx := context.Background()

	bin, err := NewAdminRepository(client).Report(ctx, dto.ReportRequest{
		Format:    models.ReportFormatXLSX,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	defer bin.Body.Close()
	assert.Equal(t, "appointments-report_2024-05-01_to_2024-05-31.xlsx", bin.Filename)
	body, _ := io.ReadAll(bin.Body)
	assert.Equal(t, "sheet", string(body))

	doc, err := NewAppointmentRepository(client).Document(ctx, 3)
	require.NoError(t, err)
	defer doc.Body.Close()
	assert.Equal(t, "ktp.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
}
