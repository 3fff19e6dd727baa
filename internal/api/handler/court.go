package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

type CourtHandler struct {
	service CourtServiceInterface
}

func NewCourtHandler(s CourtServiceInterface) *CourtHandler {
	return &CourtHandler{service: s}
}

// DayHoursRequest は1日分の営業時間（"HH:MM" 形式）
type DayHoursRequest struct {
	Open   string `json:"open" example:"06:00"`
	Close  string `json:"close" example:"22:00"`
	Closed bool   `json:"closed"`
}

// WeekHoursRequest は曜日ごとの営業時間
type WeekHoursRequest struct {
	Monday    DayHoursRequest `json:"monday"`
	Tuesday   DayHoursRequest `json:"tuesday"`
	Wednesday DayHoursRequest `json:"wednesday"`
	Thursday  DayHoursRequest `json:"thursday"`
	Friday    DayHoursRequest `json:"friday"`
	Saturday  DayHoursRequest `json:"saturday"`
	Sunday    DayHoursRequest `json:"sunday"`
}

type CreateCourtRequest struct {
	FacilityID         string           `json:"facility_id" validate:"required" example:"facility-001"`
	Name               string           `json:"name" validate:"required" example:"Court 1"`
	Hours              WeekHoursRequest `json:"operating_hours"`
	BaseRate           float64          `json:"base_rate" validate:"gte=0" example:"350"`
	PeakRate           float64          `json:"peak_rate" validate:"gte=0" example:"450"`
	WeekendRate        float64          `json:"weekend_rate" validate:"gte=0" example:"400"`
	MinDurationMin     int              `json:"min_duration_min" validate:"required,gt=0" example:"60"`
	MaxDurationMin     int              `json:"max_duration_min" validate:"required,gt=0" example:"180"`
	AdvanceBookingDays int              `json:"advance_booking_days" validate:"gte=0" example:"14"`
	CancelDeadlineHrs  int              `json:"cancel_deadline_hrs" validate:"gte=0" example:"24"`
}

type CourtResponse struct {
	ID                 string           `json:"id"`
	FacilityID         string           `json:"facility_id"`
	Name               string           `json:"name"`
	Hours              WeekHoursRequest `json:"operating_hours"`
	BaseRate           float64          `json:"base_rate"`
	PeakRate           float64          `json:"peak_rate"`
	WeekendRate        float64          `json:"weekend_rate"`
	MinDurationMin     int              `json:"min_duration_min"`
	MaxDurationMin     int              `json:"max_duration_min"`
	AdvanceBookingDays int              `json:"advance_booking_days"`
	CancelDeadlineHrs  int              `json:"cancel_deadline_hrs"`
	CreatedAt          time.Time        `json:"created_at"`
}

func toDayHours(req DayHoursRequest) (timeslot.DayHours, error) {
	if req.Closed {
		return timeslot.DayHours{Closed: true}, nil
	}
	open, err := timeslot.ParseClock(req.Open)
	if err != nil {
		return timeslot.DayHours{}, err
	}
	closeAt, err := timeslot.ParseClock(req.Close)
	if err != nil {
		return timeslot.DayHours{}, err
	}
	return timeslot.DayHours{Open: open, Close: closeAt}, nil
}

func toWeekHours(req WeekHoursRequest) (court.WeekHours, error) {
	var hours court.WeekHours
	var err error
	days := []struct {
		in  DayHoursRequest
		out *timeslot.DayHours
	}{
		{req.Monday, &hours.Monday},
		{req.Tuesday, &hours.Tuesday},
		{req.Wednesday, &hours.Wednesday},
		{req.Thursday, &hours.Thursday},
		{req.Friday, &hours.Friday},
		{req.Saturday, &hours.Saturday},
		{req.Sunday, &hours.Sunday},
	}
	for _, d := range days {
		if *d.out, err = toDayHours(d.in); err != nil {
			return court.WeekHours{}, err
		}
	}
	return hours, nil
}

func fromDayHours(h timeslot.DayHours) DayHoursRequest {
	if h.Closed {
		return DayHoursRequest{Closed: true}
	}
	return DayHoursRequest{Open: h.Open.String(), Close: h.Close.String()}
}

func toCourtResponse(c *court.Court) CourtResponse {
	return CourtResponse{
		ID: c.ID, FacilityID: c.FacilityID, Name: c.Name,
		Hours: WeekHoursRequest{
			Monday:    fromDayHours(c.Hours.Monday),
			Tuesday:   fromDayHours(c.Hours.Tuesday),
			Wednesday: fromDayHours(c.Hours.Wednesday),
			Thursday:  fromDayHours(c.Hours.Thursday),
			Friday:    fromDayHours(c.Hours.Friday),
			Saturday:  fromDayHours(c.Hours.Saturday),
			Sunday:    fromDayHours(c.Hours.Sunday),
		},
		BaseRate: c.BaseRate, PeakRate: c.PeakRate, WeekendRate: c.WeekendRate,
		MinDurationMin: c.MinDurationMin, MaxDurationMin: c.MaxDurationMin,
		AdvanceBookingDays: c.AdvanceBookingDays, CancelDeadlineHrs: c.CancelDeadlineHrs,
		CreatedAt: c.CreatedAt,
	}
}

// Create godoc
// @Summary コートを登録
// @Description 営業時間・料金を指定してコートを登録します
// @Tags courts
// @Accept json
// @Produce json
// @Param request body CreateCourtRequest true "コート情報"
// @Success 201 {object} CourtResponse
// @Failure 400 {object} map[string]string
// @Router /courts [post]
func (h *CourtHandler) Create(c echo.Context) error {
	var req CreateCourtRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	hours, err := toWeekHours(req.Hours)
	if err != nil {
		return domainHTTPError(err)
	}
	ct, err := h.service.CreateCourt(c.Request().Context(), application.CreateCourtInput{
		FacilityID: req.FacilityID, Name: req.Name, Hours: hours,
		BaseRate: req.BaseRate, PeakRate: req.PeakRate, WeekendRate: req.WeekendRate,
		MinDurationMin: req.MinDurationMin, MaxDurationMin: req.MaxDurationMin,
		AdvanceBookingDays: req.AdvanceBookingDays, CancelDeadlineHrs: req.CancelDeadlineHrs,
	})
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toCourtResponse(ct))
}

// GetByID godoc
// @Summary コートを取得
// @Description 指定IDのコートを取得します
// @Tags courts
// @Produce json
// @Param id path string true "コートID"
// @Success 200 {object} CourtResponse
// @Failure 404 {object} map[string]string
// @Router /courts/{id} [get]
func (h *CourtHandler) GetByID(c echo.Context) error {
	ct, err := h.service.GetCourt(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toCourtResponse(ct))
}

// List godoc
// @Summary コート一覧を取得
// @Description 施設のコート一覧を取得します
// @Tags courts
// @Produce json
// @Param facility_id query string false "施設ID"
// @Success 200 {array} CourtResponse
// @Router /courts [get]
func (h *CourtHandler) List(c echo.Context) error {
	courts, err := h.service.ListCourts(c.Request().Context(), c.QueryParam("facility_id"))
	if err != nil {
		return domainHTTPError(err)
	}
	resp := make([]CourtResponse, len(courts))
	for i, ct := range courts {
		resp[i] = toCourtResponse(ct)
	}
	return c.JSON(http.StatusOK, resp)
}
