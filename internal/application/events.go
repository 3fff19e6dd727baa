package application

import (
	"context"
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
)

// ライフサイクルイベントのルーティングキー
const (
	EventReservationCreated    = "reservation.created"
	EventReservationConfirmed  = "reservation.confirmed"
	EventReservationCancelled  = "reservation.cancelled"
	EventReservationCheckedIn  = "reservation.checked_in"
	EventReservationCheckedOut = "reservation.checked_out"
	EventReservationNoShow     = "reservation.no_show"
)

// EventPublisher はライフサイクルイベントの発行先
// 通知などの外部コラボレーターが購読する。発行は fire-and-forget であり、
// 失敗しても予約処理自体は成功させる
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// ReservationEvent は発行されるイベントのペイロード
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	CourtID       string    `json:"court_id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	Status        string    `json:"status"`
	RefundAmount  float64   `json:"refund_amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newReservationEvent(r *reservation.Reservation) ReservationEvent {
	ev := ReservationEvent{
		ReservationID: r.ID,
		CourtID:       r.CourtID,
		UserID:        r.UserID,
		Date:          r.Date.Format("2006-01-02"),
		Start:         r.Start.String(),
		End:           r.End.String(),
		Status:        string(r.Status),
		OccurredAt:    time.Now(),
	}
	if r.Cancellation != nil {
		ev.RefundAmount = r.Cancellation.RefundAmount
	}
	return ev
}
