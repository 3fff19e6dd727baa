package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	CourtID string `json:"court_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Date    string `json:"date" validate:"required,dateonly" example:"2026-06-10"`
	Start   string `json:"start" validate:"required,clock" example:"18:00"`
	End     string `json:"end" validate:"required,clock" example:"19:30"`
	Notes   string `json:"notes" example:"doubles practice"`
}

type ConfirmPaymentRequest struct {
	PaymentRef string `json:"payment_ref" validate:"required" example:"pay-2026-0001"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" example:"rain expected"`
}

type CancellationResponse struct {
	CancelledAt  time.Time `json:"cancelled_at"`
	CancelledBy  string    `json:"cancelled_by"`
	Reason       string    `json:"reason"`
	RefundAmount float64   `json:"refund_amount"`
}

type ReservationResponse struct {
	ID           string                     `json:"id"`
	CourtID      string                     `json:"court_id"`
	UserID       string                     `json:"user_id"`
	Date         string                     `json:"date"`
	Start        string                     `json:"start"`
	End          string                     `json:"end"`
	DurationMin  int                        `json:"duration_min"`
	Price        reservation.PriceBreakdown `json:"price"`
	Status       string                     `json:"status"`
	Notes        string                     `json:"notes,omitempty"`
	PaymentRef   string                     `json:"payment_ref,omitempty"`
	CheckedInAt  *time.Time                 `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time                 `json:"checked_out_at,omitempty"`
	LateArrival  bool                       `json:"late_arrival,omitempty"`
	LateMinutes  int                        `json:"late_minutes,omitempty"`
	Cancellation *CancellationResponse      `json:"cancellation,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID: r.ID, CourtID: r.CourtID, UserID: r.UserID,
		Date:  r.Date.Format("2006-01-02"),
		Start: r.Start.String(), End: r.End.String(),
		DurationMin: r.DurationMin,
		Price:       r.Price,
		Status:      string(r.Status),
		Notes:       r.Notes, PaymentRef: r.PaymentRef,
		CheckedInAt: r.CheckedInAt, CheckedOutAt: r.CheckedOutAt,
		LateArrival: r.LateArrival, LateMinutes: r.LateMinutes,
		CreatedAt: r.CreatedAt,
	}
	if r.Cancellation != nil {
		resp.Cancellation = &CancellationResponse{
			CancelledAt:  r.Cancellation.CancelledAt,
			CancelledBy:  r.Cancellation.CancelledBy,
			Reason:       r.Cancellation.Reason,
			RefundAmount: r.Cancellation.RefundAmount,
		}
	}
	return resp
}

// Create godoc
// @Summary 予約を作成
// @Description 競合がなければ予約を pending 状態で作成します
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} ConflictResponse "時間帯が予約できない（全競合リストつき）"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付は YYYY-MM-DD 形式で指定してください")
	}
	start, err := timeslot.ParseClock(req.Start)
	if err != nil {
		return domainHTTPError(err)
	}
	end, err := timeslot.ParseClock(req.End)
	if err != nil {
		return domainHTTPError(err)
	}
	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		CourtID: req.CourtID, UserID: userID,
		Date: date, Start: start, End: end, Notes: req.Notes,
	})
	if err != nil {
		var convErr *conflict.Error
		if errors.As(err, &convErr) {
			return respondConflict(c, convErr)
		}
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetUserReservations godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) GetUserReservations(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	reservations, err := h.service.GetUserReservations(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return domainHTTPError(err)
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmPayment godoc
// @Summary 支払いを確認
// @Description pending の予約を confirmed に遷移します
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "予約ID"
// @Param request body ConfirmPaymentRequest true "支払い参照"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "遷移できない状態"
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) ConfirmPayment(c echo.Context) error {
	var req ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.ConfirmPayment(c.Request().Context(), c.Param("id"), req.PaymentRef)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// CheckIn godoc
// @Summary チェックイン
// @Description 来場を記録します（開始30分前〜開始15分後のみ）
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "チェックイン可能時間外"
// @Router /reservations/{id}/check-in [post]
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	r, err := h.service.CheckIn(c.Request().Context(), c.Param("id"), time.Now())
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// CheckOut godoc
// @Summary チェックアウト
// @Description 退場を記録し completed に遷移します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "遷移できない状態"
// @Router /reservations/{id}/check-out [post]
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	r, err := h.service.CheckOut(c.Request().Context(), c.Param("id"), time.Now())
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、返金額を算出して記録します
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Param request body CancelReservationRequest false "キャンセル理由"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "キャンセルできない状態"
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CancelReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	r, err := h.service.CancelReservation(c.Request().Context(), c.Param("id"), time.Now(), userID, req.Reason)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
