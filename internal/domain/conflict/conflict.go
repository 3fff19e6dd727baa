package conflict

import (
	"fmt"
	"strings"
)

// Kind は予約できない理由の種別を表す
type Kind string

const (
	KindOperatingHours Kind = "operating_hours"
	KindAdvanceBooking Kind = "advance_booking"
	KindDuration       Kind = "duration"
	KindReservation    Kind = "reservation"
	KindMaintenance    Kind = "maintenance"
)

// Violation は検出された競合1件を表す
type Violation struct {
	Kind          Kind   `json:"kind"`
	Message       string `json:"message"`
	ReservationID string `json:"reservation_id,omitempty"` // Kind=reservation のとき
	BlockType     string `json:"block_type,omitempty"`     // Kind=maintenance のとき
	BlockReason   string `json:"block_reason,omitempty"`   // Kind=maintenance のとき
}

// Error は競合の完全なリストを保持するエラー
// 呼び出し側はリトライせず、空き状況を再照会する必要がある
type Error struct {
	Violations []Violation
}

// NewError は競合リストからエラーを作成する
func NewError(violations []Violation) *Error {
	return &Error{Violations: violations}
}

func (e *Error) Error() string {
	kinds := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		kinds[i] = string(v.Kind)
	}
	return fmt.Sprintf("指定時間帯は予約できません（%d件の競合: %s）", len(e.Violations), strings.Join(kinds, ", "))
}
