package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

type ScheduleHandler struct {
	service ScheduleServiceInterface
}

func NewScheduleHandler(s ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: s}
}

type CreateBlockRequest struct {
	CourtID string `json:"court_id" validate:"required"`
	Date    string `json:"date" validate:"required,dateonly" example:"2026-06-10"`
	Start   string `json:"start" validate:"required,clock" example:"09:00"`
	End     string `json:"end" validate:"required,clock" example:"12:00"`
	Type    string `json:"type" validate:"required" example:"maintenance"`
	Reason  string `json:"reason" example:"resurfacing"`
}

type CreateSpecialRateRequest struct {
	CourtID string  `json:"court_id" validate:"required"`
	Date    string  `json:"date" validate:"required,dateonly" example:"2026-06-10"`
	Start   string  `json:"start" validate:"required,clock" example:"10:00"`
	End     string  `json:"end" validate:"required,clock" example:"14:00"`
	Rate    float64 `json:"rate" validate:"required,gt=0" example:"200"`
}

type BlockResponse struct {
	ID           string   `json:"id"`
	CourtID      string   `json:"court_id"`
	Date         string   `json:"date"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	IsBlocked    bool     `json:"is_blocked"`
	Type         string   `json:"type,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	OverrideRate *float64 `json:"override_rate,omitempty"`
}

func toBlockResponse(b *schedule.Block) BlockResponse {
	return BlockResponse{
		ID: b.ID, CourtID: b.CourtID,
		Date:  b.Date.Format("2006-01-02"),
		Start: b.Start.String(), End: b.End.String(),
		IsBlocked: b.IsBlocked,
		Type:      string(b.Type), Reason: b.Reason,
		OverrideRate: b.OverrideRate,
	}
}

func (h *ScheduleHandler) parseWindow(date, start, end string) (time.Time, timeslot.Minutes, timeslot.Minutes, error) {
	d, err := parseDateParam(date)
	if err != nil {
		return time.Time{}, 0, 0, echo.NewHTTPError(http.StatusBadRequest, "日付は YYYY-MM-DD 形式で指定してください")
	}
	s, err := timeslot.ParseClock(start)
	if err != nil {
		return time.Time{}, 0, 0, domainHTTPError(err)
	}
	e, err := timeslot.ParseClock(end)
	if err != nil {
		return time.Time{}, 0, 0, domainHTTPError(err)
	}
	return d, s, e, nil
}

// CreateBlock godoc
// @Summary 利用不可枠を作成
// @Description メンテナンス等でコートの時間帯を予約不可にします。既存予約と重なる場合は409を返します
// @Tags schedule
// @Accept json
// @Produce json
// @Param request body CreateBlockRequest true "ブロック情報"
// @Success 201 {object} BlockResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} ConflictResponse "既存予約と重複"
// @Router /schedule/blocks [post]
func (h *ScheduleHandler) CreateBlock(c echo.Context) error {
	var req CreateBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, start, end, err := h.parseWindow(req.Date, req.Start, req.End)
	if err != nil {
		return err
	}
	b, err := h.service.CreateBlock(c.Request().Context(), application.CreateBlockInput{
		CourtID: req.CourtID, Date: date, Start: start, End: end,
		Type: schedule.BlockType(req.Type), Reason: req.Reason,
	})
	if err != nil {
		var convErr *conflict.Error
		if errors.As(err, &convErr) {
			return respondConflict(c, convErr)
		}
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBlockResponse(b))
}

// CreateSpecialRate godoc
// @Summary 特別料金枠を作成
// @Description 指定時間帯の料金を標準料金に優先して上書きします
// @Tags schedule
// @Accept json
// @Produce json
// @Param request body CreateSpecialRateRequest true "特別料金情報"
// @Success 201 {object} BlockResponse
// @Failure 400 {object} map[string]string
// @Router /schedule/special-rates [post]
func (h *ScheduleHandler) CreateSpecialRate(c echo.Context) error {
	var req CreateSpecialRateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, start, end, err := h.parseWindow(req.Date, req.Start, req.End)
	if err != nil {
		return err
	}
	b, err := h.service.CreateSpecialRate(c.Request().Context(), application.CreateSpecialRateInput{
		CourtID: req.CourtID, Date: date, Start: start, End: end, Rate: req.Rate,
	})
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBlockResponse(b))
}

// ListBlocks godoc
// @Summary ブロック一覧を取得
// @Description コート・日付のブロック一覧を取得します
// @Tags schedule
// @Produce json
// @Param court_id query string true "コートID"
// @Param date query string true "日付 (YYYY-MM-DD)"
// @Success 200 {array} BlockResponse
// @Failure 400 {object} map[string]string
// @Router /schedule/blocks [get]
func (h *ScheduleHandler) ListBlocks(c echo.Context) error {
	date, err := parseDateParam(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付は YYYY-MM-DD 形式で指定してください")
	}
	blocks, err := h.service.GetBlocks(c.Request().Context(), c.QueryParam("court_id"), date)
	if err != nil {
		return domainHTTPError(err)
	}
	resp := make([]BlockResponse, len(blocks))
	for i, b := range blocks {
		resp[i] = toBlockResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteBlock godoc
// @Summary ブロックを削除
// @Description ブロックを無条件に削除します
// @Tags schedule
// @Param id path string true "ブロックID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /schedule/blocks/{id} [delete]
func (h *ScheduleHandler) DeleteBlock(c echo.Context) error {
	if err := h.service.RemoveBlock(c.Request().Context(), c.Param("id")); err != nil {
		return domainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
