package reservation

import (
	"fmt"
	"math"
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// ActiveStatuses は時間枠を占有する状態（重複判定の対象）
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// チェックイン可能な時間帯: [開始30分前, 開始15分後]
const (
	CheckInEarlyWindow = 30 * time.Minute
	CheckInLateWindow  = 15 * time.Minute
)

// 返金ポリシーの閾値
const (
	FullRefundHours = 24 // これ以上前なら全額返金
	HalfRefundHours = 2  // これ以上前なら半額返金、未満は返金なし
	HalfRefundRate  = 0.5
)

// PriceBreakdown は料金の内訳を表す
type PriceBreakdown struct {
	BaseRate          float64 `json:"base_rate"`
	DurationHours     float64 `json:"duration_hours"`
	PeakMultiplier    float64 `json:"peak_multiplier"`
	WeekendMultiplier float64 `json:"weekend_multiplier"`
	Subtotal          float64 `json:"subtotal"`
	TaxAmount         float64 `json:"tax_amount"`
	ServiceFee        float64 `json:"service_fee"`
	TotalAmount       float64 `json:"total_amount"`
}

// Cancellation はキャンセルの記録を表す
// 返金額を記録するのみで、実際の返金処理は外部の決済側が行う
type Cancellation struct {
	CancelledAt     time.Time `json:"cancelled_at"`
	CancelledBy     string    `json:"cancelled_by"`
	Reason          string    `json:"reason"`
	RefundAmount    float64   `json:"refund_amount"`
	RefundProcessed bool      `json:"refund_processed"`
}

// Reservation は予約エンティティを表す
// 状態とキャンセル・返金フィールドの書き込みはライフサイクル管理側のみが行う
type Reservation struct {
	ID           string
	CourtID      string
	UserID       string
	Date         time.Time // 日付のみ（UTC 0時に正規化）
	Start        timeslot.Minutes
	End          timeslot.Minutes
	DurationMin  int
	Price        PriceBreakdown
	Status       Status
	Notes        string
	PaymentRef   string
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
	LateArrival  bool
	LateMinutes  int
	Cancellation *Cancellation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReservation は新しい予約を pending 状態で作成する
func NewReservation(courtID, userID string, date time.Time, start, end timeslot.Minutes, notes string, price PriceBreakdown) *Reservation {
	now := time.Now()
	return &Reservation{
		CourtID:     courtID,
		UserID:      userID,
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Start:       start,
		End:         end,
		DurationMin: int(end - start),
		Price:       price,
		Status:      StatusPending,
		Notes:       notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.CourtID == "" {
		return ErrCourtIDRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	return timeslot.ValidateRange(r.Start, r.End)
}

// StartAt は予約開始日時を返す
func (r *Reservation) StartAt() time.Time {
	return r.Date.Add(time.Duration(r.Start) * time.Minute)
}

// EndAt は予約終了日時を返す
func (r *Reservation) EndAt() time.Time {
	return r.Date.Add(time.Duration(r.End) * time.Minute)
}

// IsActive は時間枠を占有している状態かを返す
func (r *Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// IsTerminal は終端状態かを返す
func (r *Reservation) IsTerminal() bool {
	return r.Status == StatusCancelled || r.Status == StatusCompleted || r.Status == StatusNoShow
}

// ConfirmPayment は支払いを確認し confirmed に遷移する
// pending 以外からの遷移は不可
func (r *Reservation) ConfirmPayment(paymentRef string) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s から confirmed には遷移できません", ErrInvalidState, r.Status)
	}
	r.Status = StatusConfirmed
	r.PaymentRef = paymentRef
	r.UpdatedAt = time.Now()
	return nil
}

// CheckIn は来場を記録し checked_in に遷移する
// confirmed 状態かつ [開始30分前, 開始15分後] の間のみ可能
func (r *Reservation) CheckIn(now time.Time) error {
	if r.Status != StatusConfirmed {
		return fmt.Errorf("%w: %s からチェックインはできません", ErrInvalidState, r.Status)
	}
	startAt := r.StartAt()
	if now.Before(startAt.Add(-CheckInEarlyWindow)) || now.After(startAt.Add(CheckInLateWindow)) {
		return fmt.Errorf("%w: チェックイン可能時間は %s〜%s です", ErrOutsideCheckInWindow,
			startAt.Add(-CheckInEarlyWindow).Format("15:04"), startAt.Add(CheckInLateWindow).Format("15:04"))
	}
	r.Status = StatusCheckedIn
	checkedIn := now
	r.CheckedInAt = &checkedIn
	if now.After(startAt) {
		r.LateArrival = true
		r.LateMinutes = int(now.Sub(startAt).Minutes())
	}
	r.UpdatedAt = now
	return nil
}

// CheckOut は退場を記録し completed に遷移する
func (r *Reservation) CheckOut(now time.Time) error {
	if r.Status != StatusCheckedIn {
		return fmt.Errorf("%w: %s からチェックアウトはできません", ErrInvalidState, r.Status)
	}
	r.Status = StatusCompleted
	checkedOut := now
	r.CheckedOutAt = &checkedOut
	r.UpdatedAt = now
	return nil
}

// Cancel は予約をキャンセルし、返金額を算出して記録する
// pending または confirmed からのみ可能
func (r *Reservation) Cancel(now time.Time, cancelledBy, reason string) error {
	if !r.IsActive() {
		return fmt.Errorf("%w: %s からキャンセルはできません", ErrInvalidState, r.Status)
	}
	hoursUntilStart := r.StartAt().Sub(now).Hours()
	r.Status = StatusCancelled
	r.Cancellation = &Cancellation{
		CancelledAt:  now,
		CancelledBy:  cancelledBy,
		Reason:       reason,
		RefundAmount: RefundAmount(r.Price.TotalAmount, hoursUntilStart),
	}
	r.UpdatedAt = now
	return nil
}

// CancelUnpaid は支払い確認前の予約を返金なしでキャンセルする
// 決済が発生していない pending からのみ可能で、返金額は常に0を記録する
func (r *Reservation) CancelUnpaid(now time.Time, cancelledBy, reason string) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s は支払い前キャンセルの対象外です", ErrInvalidState, r.Status)
	}
	r.Status = StatusCancelled
	r.Cancellation = &Cancellation{
		CancelledAt:  now,
		CancelledBy:  cancelledBy,
		Reason:       reason,
		RefundAmount: 0,
	}
	r.UpdatedAt = now
	return nil
}

// MarkNoShow は来場しなかった予約を no_show に遷移する
// confirmed 状態かつチェックイン可能時間を過ぎた後のみ可能
func (r *Reservation) MarkNoShow(now time.Time) error {
	if r.Status != StatusConfirmed {
		return fmt.Errorf("%w: %s から no_show には遷移できません", ErrInvalidState, r.Status)
	}
	if !now.After(r.StartAt().Add(CheckInLateWindow)) {
		return ErrNoShowTooEarly
	}
	r.Status = StatusNoShow
	r.UpdatedAt = now
	return nil
}

// RefundAmount は開始までの残り時間に応じた返金額を返す
// 24時間以上前: 全額 / 2〜24時間前: 半額 / 2時間未満: 返金なし
func RefundAmount(totalAmount, hoursUntilStart float64) float64 {
	switch {
	case hoursUntilStart >= FullRefundHours:
		return roundCents(totalAmount)
	case hoursUntilStart >= HalfRefundHours:
		return roundCents(totalAmount * HalfRefundRate)
	default:
		return 0
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
