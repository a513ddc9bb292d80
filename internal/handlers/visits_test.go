package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hospital-scheduling-server/internal/middleware"
	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/scheduling"
	"hospital-scheduling-server/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) ComputeAvailableSlots(ctx context.Context, doctorID, specializationID string, date models.Date) ([]scheduling.SlotAvailability, error) {
	args := m.Called(ctx, doctorID, specializationID, date)
	slots, _ := args.Get(0).([]scheduling.SlotAvailability)
	return slots, args.Error(1)
}

func (m *MockScheduler) ValidateAndCreateVisit(ctx context.Context, req scheduling.CreateVisitRequest) (*scheduling.VisitView, error) {
	args := m.Called(ctx, req)
	view, _ := args.Get(0).(*scheduling.VisitView)
	return view, args.Error(1)
}

func (m *MockScheduler) CancelVisit(ctx context.Context, visitID string) (*scheduling.VisitView, error) {
	args := m.Called(ctx, visitID)
	view, _ := args.Get(0).(*scheduling.VisitView)
	return view, args.Error(1)
}

func (m *MockScheduler) CompleteVisit(ctx context.Context, visitID, notes, prescription string) (*scheduling.VisitView, error) {
	args := m.Called(ctx, visitID, notes, prescription)
	view, _ := args.Get(0).(*scheduling.VisitView)
	return view, args.Error(1)
}

func (m *MockScheduler) EditVisit(ctx context.Context, visitID string, req scheduling.EditVisitRequest) error {
	args := m.Called(ctx, visitID, req)
	return args.Error(0)
}

func (m *MockScheduler) ListVisitTimes(ctx context.Context, doctorID string, date models.Date) ([]scheduling.VisitTime, error) {
	args := m.Called(ctx, doctorID, date)
	times, _ := args.Get(0).([]scheduling.VisitTime)
	return times, args.Error(1)
}

func (m *MockScheduler) GetVisit(ctx context.Context, visitID string) (*scheduling.VisitView, error) {
	args := m.Called(ctx, visitID)
	view, _ := args.Get(0).(*scheduling.VisitView)
	return view, args.Error(1)
}

func (m *MockScheduler) ListVisits(ctx context.Context, filter scheduling.VisitFilter) ([]scheduling.VisitView, error) {
	args := m.Called(ctx, filter)
	views, _ := args.Get(0).([]scheduling.VisitView)
	return views, args.Error(1)
}

var tomorrow = models.NewDate(2025, time.October, 22)

func newVisitRouter(s Scheduler, userID string, role models.Role) *gin.Engine {
	h := NewVisitHandler(s)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, userID, role)
		c.Next()
	})
	r.GET("/visits/available-slots", h.GetAvailableSlots)
	r.GET("/visits/times", h.GetVisitTimes)
	r.POST("/visits", h.CreateVisit)
	r.GET("/visits", h.ListVisits)
	r.GET("/visits/:id", h.GetVisitByID)
	r.PATCH("/visits/:id/cancel", h.CancelVisit)
	r.PATCH("/visits/:id/complete", h.CompleteVisit)
	r.PUT("/visits/:id", h.EditVisit)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.ResponseData {
	t.Helper()
	var body utils.ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetAvailableSlots(t *testing.T) {
	t.Run("returns slots", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("ComputeAvailableSlots", mock.Anything, "D1", "spec-1", tomorrow).
			Return([]scheduling.SlotAvailability{{Time: models.NewTimeOfDay(9, 0), DoctorAvailable: true}}, nil)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodGet,
			"/visits/available-slots?doctorId=D1&specializationId=spec-1&date=2025-10-22", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"time":"09:00"`)
		s.AssertExpectations(t)
	})

	t.Run("missing date", func(t *testing.T) {
		s := new(MockScheduler)
		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodGet,
			"/visits/available-slots?doctorId=D1&specializationId=spec-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.AssertNotCalled(t, "ComputeAvailableSlots")
	})

	t.Run("unknown doctor", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("ComputeAvailableSlots", mock.Anything, "D9", "spec-1", tomorrow).Return(nil, scheduling.ErrDoctorNotFound)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodGet,
			"/visits/available-slots?doctorId=D9&specializationId=spec-1&date=2025-10-22", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func bookingBody() map[string]string {
	return map[string]string{
		"doctorId":         "D1",
		"specializationId": "spec-1",
		"roomId":           "room-1",
		"visitDate":        "2025-10-22",
		"visitTime":        "10:00",
		"reason":           "Consultation",
	}
}

func TestCreateVisit(t *testing.T) {
	t.Run("patient books for self", func(t *testing.T) {
		s := new(MockScheduler)
		want := scheduling.CreateVisitRequest{
			DoctorID:         "D1",
			PatientID:        "P1",
			SpecializationID: "spec-1",
			RoomID:           "room-1",
			Date:             tomorrow,
			Time:             models.NewTimeOfDay(10, 0),
			Reason:           "Consultation",
		}
		s.On("ValidateAndCreateVisit", mock.Anything, want).
			Return(&scheduling.VisitView{ID: "visit-9", Status: models.VisitScheduled}, nil)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPost, "/visits", bookingBody())

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"visit-9"`)
		s.AssertExpectations(t)
	})

	t.Run("patient cannot book for someone else", func(t *testing.T) {
		s := new(MockScheduler)
		body := bookingBody()
		body["patientId"] = "P2"

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPost, "/visits", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
		s.AssertNotCalled(t, "ValidateAndCreateVisit")
	})

	t.Run("admin must name the patient", func(t *testing.T) {
		s := new(MockScheduler)
		w := do(newVisitRouter(s, "A1", models.RoleAdmin), http.MethodPost, "/visits", bookingBody())
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed time", func(t *testing.T) {
		s := new(MockScheduler)
		body := bookingBody()
		body["visitTime"] = "ten"
		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPost, "/visits", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	cases := []struct {
		err  error
		want int
	}{
		{scheduling.ErrDateNotInFuture, http.StatusBadRequest},
		{scheduling.ErrSpecializationMismatch, http.StatusBadRequest},
		{scheduling.ErrPatientNotFound, http.StatusNotFound},
		{scheduling.ErrDoctorDoubleBooked, http.StatusConflict},
		{scheduling.ErrRoomDoubleBooked, http.StatusConflict},
		{fmt.Errorf("%w: insert visit: timeout", scheduling.ErrStorage), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			s := new(MockScheduler)
			s.On("ValidateAndCreateVisit", mock.Anything, mock.Anything).Return(nil, tc.err)

			w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPost, "/visits", bookingBody())
			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, tc.want, decode(t, w).Status)
		})
	}
}

func TestListVisits_ScopedByRole(t *testing.T) {
	t.Run("patient", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("ListVisits", mock.Anything, scheduling.VisitFilter{PatientID: "P1", ExcludeCancelled: true}).
			Return([]scheduling.VisitView{}, nil)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodGet, "/visits?patientId=P2", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		s.AssertExpectations(t)
	})

	t.Run("doctor with date and cancelled", func(t *testing.T) {
		s := new(MockScheduler)
		date := tomorrow
		s.On("ListVisits", mock.Anything, scheduling.VisitFilter{DoctorID: "D1", Date: &date}).
			Return([]scheduling.VisitView{}, nil)

		w := do(newVisitRouter(s, "D1", models.RoleDoctor), http.MethodGet, "/visits?date=2025-10-22&includeCancelled=true", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		s.AssertExpectations(t)
	})
}

func TestVisitAccess(t *testing.T) {
	view := &scheduling.VisitView{ID: "visit-1", DoctorID: "D1", PatientID: "P1", Status: models.VisitScheduled}

	cases := []struct {
		name   string
		userID string
		role   models.Role
		want   int
	}{
		{"owning patient", "P1", models.RolePatient, http.StatusOK},
		{"other patient", "P2", models.RolePatient, http.StatusForbidden},
		{"owning doctor", "D1", models.RoleDoctor, http.StatusOK},
		{"other doctor", "D2", models.RoleDoctor, http.StatusForbidden},
		{"admin", "A1", models.RoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := new(MockScheduler)
			s.On("GetVisit", mock.Anything, "visit-1").Return(view, nil)

			w := do(newVisitRouter(s, tc.userID, tc.role), http.MethodGet, "/visits/visit-1", nil)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCancelVisit(t *testing.T) {
	view := &scheduling.VisitView{ID: "visit-1", DoctorID: "D1", PatientID: "P1", Status: models.VisitScheduled}

	t.Run("owner cancels", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("GetVisit", mock.Anything, "visit-1").Return(view, nil)
		cancelled := *view
		cancelled.Status = models.VisitCancelled
		s.On("CancelVisit", mock.Anything, "visit-1").Return(&cancelled, nil)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPatch, "/visits/visit-1/cancel", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"Cancelled"`)
	})

	t.Run("terminal visit", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("GetVisit", mock.Anything, "visit-1").Return(view, nil)
		s.On("CancelVisit", mock.Anything, "visit-1").Return(nil, scheduling.ErrCannotCancel)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPatch, "/visits/visit-1/cancel", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing visit", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("GetVisit", mock.Anything, "nope").Return(nil, scheduling.ErrVisitNotFound)

		w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodPatch, "/visits/nope/cancel", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		s.AssertNotCalled(t, "CancelVisit", mock.Anything, mock.Anything)
	})
}

func TestCompleteVisit(t *testing.T) {
	view := &scheduling.VisitView{ID: "visit-1", DoctorID: "D1", PatientID: "P1"}
	s := new(MockScheduler)
	s.On("GetVisit", mock.Anything, "visit-1").Return(view, nil)
	s.On("CompleteVisit", mock.Anything, "visit-1", "ok", "rest").
		Return(&scheduling.VisitView{ID: "visit-1", Status: models.VisitCompleted}, nil)

	w := do(newVisitRouter(s, "D1", models.RoleDoctor), http.MethodPatch, "/visits/visit-1/complete",
		map[string]string{"visitNotes": "ok", "prescriptionText": "rest"})
	assert.Equal(t, http.StatusOK, w.Code)
	s.AssertExpectations(t)
}

func TestEditVisit(t *testing.T) {
	body := map[string]string{
		"id":        "visit-1",
		"visitDate": "2025-10-23",
		"visitTime": "11:00",
		"status":    "scheduled",
		"reason":    "FollowUp",
	}

	t.Run("no content on success", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("EditVisit", mock.Anything, "visit-1", scheduling.EditVisitRequest{
			ID:     "visit-1",
			Date:   models.NewDate(2025, time.October, 23),
			Time:   models.NewTimeOfDay(11, 0),
			Status: "scheduled",
			Reason: "FollowUp",
		}).Return(nil)

		w := do(newVisitRouter(s, "A1", models.RoleAdmin), http.MethodPut, "/visits/visit-1", body)
		assert.Equal(t, http.StatusNoContent, w.Code)
		s.AssertExpectations(t)
	})

	t.Run("id mismatch", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("EditVisit", mock.Anything, "visit-2", mock.Anything).Return(scheduling.ErrIDMismatch)

		w := do(newVisitRouter(s, "A1", models.RoleAdmin), http.MethodPut, "/visits/visit-2", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("slot taken", func(t *testing.T) {
		s := new(MockScheduler)
		s.On("EditVisit", mock.Anything, "visit-1", mock.Anything).Return(scheduling.ErrRoomDoubleBooked)

		w := do(newVisitRouter(s, "A1", models.RoleAdmin), http.MethodPut, "/visits/visit-1", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetVisitTimes(t *testing.T) {
	s := new(MockScheduler)
	s.On("ListVisitTimes", mock.Anything, "D1", tomorrow).
		Return([]scheduling.VisitTime{{Time: models.NewTimeOfDay(9, 30), Room: "Cardiology Consultation Room"}}, nil)

	w := do(newVisitRouter(s, "P1", models.RolePatient), http.MethodGet, "/visits/times?doctorId=D1&date=2025-10-22", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"room":"Cardiology Consultation Room"`)
}
