package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// CourtServiceInterface はコートサービスのインターフェース
type CourtServiceInterface interface {
	CreateCourt(ctx context.Context, input application.CreateCourtInput) (*court.Court, error)
	GetCourt(ctx context.Context, id string) (*court.Court, error)
	ListCourts(ctx context.Context, facilityID string) ([]*court.Court, error)
}

// AvailabilityServiceInterface は空き状況サービスのインターフェース
type AvailabilityServiceInterface interface {
	GetAvailableSlots(ctx context.Context, courtID string, date time.Time) ([]application.SlotView, error)
	CheckAvailability(ctx context.Context, courtID string, date time.Time, start, end timeslot.Minutes) (*application.AvailabilityResult, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error)
	ConfirmPayment(ctx context.Context, id, paymentRef string) (*reservation.Reservation, error)
	CheckIn(ctx context.Context, id string, now time.Time) (*reservation.Reservation, error)
	CheckOut(ctx context.Context, id string, now time.Time) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, id string, now time.Time, cancelledBy, reason string) (*reservation.Reservation, error)
}

// ScheduleServiceInterface はスケジュールブロックサービスのインターフェース
type ScheduleServiceInterface interface {
	CreateBlock(ctx context.Context, input application.CreateBlockInput) (*schedule.Block, error)
	CreateSpecialRate(ctx context.Context, input application.CreateSpecialRateInput) (*schedule.Block, error)
	GetBlocks(ctx context.Context, courtID string, date time.Time) ([]*schedule.Block, error)
	RemoveBlock(ctx context.Context, id string) error
}
