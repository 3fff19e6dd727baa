package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// MockCourtService はCourtServiceInterfaceのモック
type MockCourtService struct {
	mock.Mock
}

func (m *MockCourtService) CreateCourt(ctx context.Context, input application.CreateCourtInput) (*court.Court, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*court.Court), args.Error(1)
}

func (m *MockCourtService) GetCourt(ctx context.Context, id string) (*court.Court, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*court.Court), args.Error(1)
}

func (m *MockCourtService) ListCourts(ctx context.Context, facilityID string) ([]*court.Court, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*court.Court), args.Error(1)
}

func testCourt() *court.Court {
	open := timeslot.Minutes(6 * 60)
	closeAt := timeslot.Minutes(22 * 60)
	day := timeslot.DayHours{Open: open, Close: closeAt}
	return &court.Court{
		ID:         "court-123",
		FacilityID: "facility-001",
		Name:       "Court 1",
		Hours: court.WeekHours{
			Monday: day, Tuesday: day, Wednesday: day,
			Thursday: day, Friday: day, Saturday: day, Sunday: day,
		},
		BaseRate:           350,
		PeakRate:           450,
		WeekendRate:        400,
		MinDurationMin:     60,
		MaxDurationMin:     180,
		AdvanceBookingDays: 14,
		CancelDeadlineHrs:  24,
		CreatedAt:          time.Now(),
	}
}

func TestCourtHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にコートを登録できる", func(t *testing.T) {
		mockService := new(MockCourtService)
		mockService.On("CreateCourt", mock.Anything, mock.AnythingOfType("application.CreateCourtInput")).
			Return(testCourt(), nil)

		handler := NewCourtHandler(mockService)

		reqBody := `{
			"facility_id": "facility-001",
			"name": "Court 1",
			"operating_hours": {
				"monday": {"open": "06:00", "close": "22:00"},
				"tuesday": {"open": "06:00", "close": "22:00"},
				"wednesday": {"open": "06:00", "close": "22:00"},
				"thursday": {"open": "06:00", "close": "22:00"},
				"friday": {"open": "06:00", "close": "22:00"},
				"saturday": {"open": "08:00", "close": "20:00"},
				"sunday": {"closed": true}
			},
			"base_rate": 350,
			"peak_rate": 450,
			"weekend_rate": 400,
			"min_duration_min": 60,
			"max_duration_min": 180,
			"advance_booking_days": 14,
			"cancel_deadline_hrs": 24
		}`
		req := httptest.NewRequest(http.MethodPost, "/courts", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp CourtResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "court-123", resp.ID)
		assert.Equal(t, "06:00", resp.Hours.Monday.Open)
		assert.Equal(t, 350.0, resp.BaseRate)

		mockService.AssertExpectations(t)
	})

	t.Run("名前がない場合400", func(t *testing.T) {
		mockService := new(MockCourtService)
		handler := NewCourtHandler(mockService)

		reqBody := `{"facility_id": "facility-001", "min_duration_min": 60, "max_duration_min": 180}`
		req := httptest.NewRequest(http.MethodPost, "/courts", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("不正な営業時間形式は400", func(t *testing.T) {
		mockService := new(MockCourtService)
		handler := NewCourtHandler(mockService)

		reqBody := `{
			"facility_id": "facility-001",
			"name": "Court 1",
			"operating_hours": {"monday": {"open": "6am", "close": "22:00"}},
			"min_duration_min": 60,
			"max_duration_min": 180
		}`
		req := httptest.NewRequest(http.MethodPost, "/courts", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestCourtHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にコートを取得できる", func(t *testing.T) {
		mockService := new(MockCourtService)
		mockService.On("GetCourt", mock.Anything, "court-123").Return(testCourt(), nil)

		handler := NewCourtHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/courts/court-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("court-123")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CourtResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "Court 1", resp.Name)

		mockService.AssertExpectations(t)
	})

	t.Run("コートが見つからない場合404", func(t *testing.T) {
		mockService := new(MockCourtService)
		mockService.On("GetCourt", mock.Anything, "nonexistent").Return(nil, court.ErrCourtNotFound)

		handler := NewCourtHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/courts/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.GetByID(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)

		mockService.AssertExpectations(t)
	})
}

func TestCourtHandler_List(t *testing.T) {
	e := NewTestEcho()

	t.Run("施設IDでコート一覧を取得できる", func(t *testing.T) {
		mockService := new(MockCourtService)
		mockService.On("ListCourts", mock.Anything, "facility-001").
			Return([]*court.Court{testCourt(), testCourt()}, nil)

		handler := NewCourtHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/courts?facility_id=facility-001", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.List(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []CourtResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Len(t, resp, 2)

		mockService.AssertExpectations(t)
	})
}
