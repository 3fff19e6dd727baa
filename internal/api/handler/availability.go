package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

type AvailabilityHandler struct {
	service AvailabilityServiceInterface
}

func NewAvailabilityHandler(s AvailabilityServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: s}
}

// AvailableSlotsResponse はコート・日付の空き枠一覧
type AvailableSlotsResponse struct {
	CourtID string                 `json:"court_id"`
	Date    string                 `json:"date"`
	Slots   []application.SlotView `json:"slots"`
}

// CheckAvailabilityResponse は任意時間帯の空き判定結果
type CheckAvailabilityResponse struct {
	Available bool        `json:"available"`
	Price     interface{} `json:"price,omitempty"`
	Conflicts interface{} `json:"conflicts,omitempty"`
}

// parseDateParam は YYYY-MM-DD 形式のクエリをパースする
func parseDateParam(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// GetSlots godoc
// @Summary 空き枠一覧を取得
// @Description コート・日付の全スロットを空き状況と料金つきで返します
// @Tags availability
// @Produce json
// @Param id path string true "コートID"
// @Param date query string true "日付 (YYYY-MM-DD)"
// @Success 200 {object} AvailableSlotsResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /courts/{id}/availability [get]
func (h *AvailabilityHandler) GetSlots(c echo.Context) error {
	courtID := c.Param("id")
	date, err := parseDateParam(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付は YYYY-MM-DD 形式で指定してください")
	}
	slots, err := h.service.GetAvailableSlots(c.Request().Context(), courtID, date)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, AvailableSlotsResponse{
		CourtID: courtID,
		Date:    date.Format("2006-01-02"),
		Slots:   slots,
	})
}

// Check godoc
// @Summary 時間帯の空きを判定
// @Description 任意時間帯が予約可能かを競合リストつきで返します
// @Tags availability
// @Produce json
// @Param id path string true "コートID"
// @Param date query string true "日付 (YYYY-MM-DD)"
// @Param start query string true "開始時刻 (HH:MM)"
// @Param end query string true "終了時刻 (HH:MM)"
// @Success 200 {object} CheckAvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /courts/{id}/availability/check [get]
func (h *AvailabilityHandler) Check(c echo.Context) error {
	courtID := c.Param("id")
	date, err := parseDateParam(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付は YYYY-MM-DD 形式で指定してください")
	}
	start, err := timeslot.ParseClock(c.QueryParam("start"))
	if err != nil {
		return domainHTTPError(err)
	}
	end, err := timeslot.ParseClock(c.QueryParam("end"))
	if err != nil {
		return domainHTTPError(err)
	}
	result, err := h.service.CheckAvailability(c.Request().Context(), courtID, date, start, end)
	if err != nil {
		return domainHTTPError(err)
	}
	resp := CheckAvailabilityResponse{Available: result.Available}
	if result.Price != nil {
		resp.Price = result.Price
	}
	if len(result.Violations) > 0 {
		resp.Conflicts = result.Violations
	}
	return c.JSON(http.StatusOK, resp)
}
