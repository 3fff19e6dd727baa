package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// ConflictResponse は競合リストつきの409レスポンス
// 呼び出し側はリトライせず空き状況を再照会する
type ConflictResponse struct {
	Error     string               `json:"error"`
	Conflicts []conflict.Violation `json:"conflicts"`
}

// respondConflict は conflict.Error を409レスポンスとして返す
func respondConflict(c echo.Context, convErr *conflict.Error) error {
	return c.JSON(http.StatusConflict, ConflictResponse{
		Error:     convErr.Error(),
		Conflicts: convErr.Violations,
	})
}

// domainHTTPError はドメインエラーをHTTPステータスに対応付ける
func domainHTTPError(err error) error {
	var convErr *conflict.Error
	switch {
	case errors.As(err, &convErr):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, court.ErrCourtNotFound),
		errors.Is(err, schedule.ErrBlockNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, reservation.ErrInvalidState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, reservation.ErrOutsideCheckInWindow),
		errors.Is(err, reservation.ErrNoShowTooEarly):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, timeslot.ErrInvalidClock),
		errors.Is(err, timeslot.ErrInvalidRange),
		errors.Is(err, court.ErrCourtNameRequired),
		errors.Is(err, court.ErrFacilityIDRequired),
		errors.Is(err, court.ErrNegativeRate),
		errors.Is(err, court.ErrInvalidDurationRange),
		errors.Is(err, court.ErrInvalidAdvanceDays),
		errors.Is(err, schedule.ErrCourtIDRequired),
		errors.Is(err, schedule.ErrUnknownBlockType),
		errors.Is(err, schedule.ErrInvalidOverrideRate),
		errors.Is(err, reservation.ErrCourtIDRequired),
		errors.Is(err, reservation.ErrUserIDRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
