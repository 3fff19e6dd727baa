package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// DaySnapshot はあるコート・日付の占有状況のスナップショット
// 読み取り時点の情報であり、後続の書き込みに対しては参考値でしかない
type DaySnapshot struct {
	Reservations []*reservation.Reservation
	Blocks       []*schedule.Block
}

// SpecialRates は特別料金枠（isBlocked=false）のみを返す
func (s *DaySnapshot) SpecialRates() []*schedule.Block {
	rates := make([]*schedule.Block, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		if !b.IsBlocked {
			rates = append(rates, b)
		}
	}
	return rates
}

// ConflictChecker は要求された時間帯に対する競合をすべて列挙する
// 最初の違反で打ち切らず、完全なリストを返す
type ConflictChecker struct {
	reservationRepo reservation.Repository
	blockRepo       schedule.Repository
	now             func() time.Time
}

// NewConflictChecker は新しい ConflictChecker を作成する
func NewConflictChecker(rr reservation.Repository, br schedule.Repository) *ConflictChecker {
	return &ConflictChecker{reservationRepo: rr, blockRepo: br, now: time.Now}
}

// LoadSnapshot はコート・日付の占有状況を読み込む
// 空き枠一覧のように同じ日を何度も判定する場合に一度だけ呼ぶ
func (c *ConflictChecker) LoadSnapshot(ctx context.Context, courtID string, date time.Time) (*DaySnapshot, error) {
	reservations, err := c.reservationRepo.GetActiveByCourtDate(ctx, courtID, date)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗: %w", err)
	}
	blocks, err := c.blockRepo.GetByCourtAndDate(ctx, courtID, date)
	if err != nil {
		return nil, fmt.Errorf("ブロックの取得に失敗: %w", err)
	}
	return &DaySnapshot{Reservations: reservations, Blocks: blocks}, nil
}

// Check はスナップショットを読み込んだうえで全ルールを判定する
func (c *ConflictChecker) Check(ctx context.Context, ct *court.Court, date time.Time, start, end timeslot.Minutes) ([]conflict.Violation, *DaySnapshot, error) {
	snap, err := c.LoadSnapshot(ctx, ct.ID, date)
	if err != nil {
		return nil, nil, err
	}
	return c.CheckSnapshot(ct, date, start, end, snap), snap, nil
}

// CheckSnapshot は読み込み済みスナップショットに対して全ルールを判定する
// 純粋関数であり、状態を変更しない
func (c *ConflictChecker) CheckSnapshot(ct *court.Court, date time.Time, start, end timeslot.Minutes, snap *DaySnapshot) []conflict.Violation {
	violations := []conflict.Violation{}

	// 営業時間: 休業日、または窓が [open, close) に収まらない
	day := ct.HoursFor(date)
	if day.Closed {
		violations = append(violations, conflict.Violation{
			Kind:    conflict.KindOperatingHours,
			Message: "指定日は休業日です",
		})
	} else if start < day.Open || end > day.Close {
		violations = append(violations, conflict.Violation{
			Kind:    conflict.KindOperatingHours,
			Message: fmt.Sprintf("営業時間は %s〜%s です", day.Open, day.Close),
		})
	}

	// 事前予約可能日数
	today := schedule.Midnight(c.now())
	if daysAhead := int(schedule.Midnight(date).Sub(today).Hours() / 24); daysAhead > ct.AdvanceBookingDays {
		violations = append(violations, conflict.Violation{
			Kind:    conflict.KindAdvanceBooking,
			Message: fmt.Sprintf("予約できるのは%d日先までです", ct.AdvanceBookingDays),
		})
	}

	// 予約時間の下限・上限
	if duration := int(end - start); duration < ct.MinDurationMin || duration > ct.MaxDurationMin {
		violations = append(violations, conflict.Violation{
			Kind:    conflict.KindDuration,
			Message: fmt.Sprintf("予約時間は%d分〜%d分で指定してください", ct.MinDurationMin, ct.MaxDurationMin),
		})
	}

	// 既存予約との重複
	violations = append(violations, ReservationOverlaps(start, end, snap.Reservations)...)

	// 利用不可枠との重複
	for _, b := range snap.Blocks {
		if !b.IsBlocked {
			continue
		}
		if timeslot.Overlaps(start, end, b.Start, b.End) {
			violations = append(violations, conflict.Violation{
				Kind:        conflict.KindMaintenance,
				Message:     fmt.Sprintf("%s〜%s は利用できません", b.Start, b.End),
				BlockType:   string(b.Type),
				BlockReason: b.Reason,
			})
		}
	}

	return violations
}

// ReservationOverlaps は既存のアクティブ予約との重複のみを判定する
// ブロック作成時の検査にも使う
func ReservationOverlaps(start, end timeslot.Minutes, reservations []*reservation.Reservation) []conflict.Violation {
	violations := []conflict.Violation{}
	for _, r := range reservations {
		if !r.IsActive() {
			continue
		}
		if timeslot.Overlaps(start, end, r.Start, r.End) {
			violations = append(violations, conflict.Violation{
				Kind:          conflict.KindReservation,
				Message:       fmt.Sprintf("%s〜%s は既に予約されています", r.Start, r.End),
				ReservationID: r.ID,
			})
		}
	}
	return violations
}
