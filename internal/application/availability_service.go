package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
	redisinfra "github.com/sanosuguru/go-court-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/logger"
)

// SlotGranularity はスロットの固定長（30分）
const SlotGranularity = timeslot.Minutes(30)

// SlotView は空き枠一覧の1スロット分の結果
type SlotView struct {
	Start                    timeslot.Minutes            `json:"-"`
	End                      timeslot.Minutes            `json:"-"`
	StartClock               string                      `json:"start"`
	EndClock                 string                      `json:"end"`
	Available                bool                        `json:"available"`
	Price                    *reservation.PriceBreakdown `json:"price,omitempty"`
	BlockedReason            string                      `json:"blocked_reason,omitempty"`
	ConflictingReservationID string                      `json:"conflicting_reservation_id,omitempty"`
}

// AvailabilityResult は任意時間帯の空き判定の結果
type AvailabilityResult struct {
	Available  bool
	Price      *reservation.PriceBreakdown
	Violations []conflict.Violation
}

// Calculator は料金内訳の計算を担う
type Calculator interface {
	Calculate(ct *court.Court, date time.Time, start, end timeslot.Minutes, specialRates []*schedule.Block) reservation.PriceBreakdown
}

// AvailabilityService は空き状況の読み取りパス
// 結果は読み取り時点のスナップショットであり、確定は予約作成時に改めて検証される
type AvailabilityService struct {
	courtRepo court.Repository
	checker   *ConflictChecker
	calc      Calculator
	cache     *redisinfra.AvailabilityCache
	cacheTTL  time.Duration
}

// NewAvailabilityService は新しい AvailabilityService を作成する
// cache は nil でもよい（その場合キャッシュしない）
func NewAvailabilityService(cr court.Repository, checker *ConflictChecker, calc Calculator, cache *redisinfra.AvailabilityCache, cacheTTL time.Duration) *AvailabilityService {
	return &AvailabilityService{courtRepo: cr, checker: checker, calc: calc, cache: cache, cacheTTL: cacheTTL}
}

// GetAvailableSlots はコート・日付の全スロットを空き状況と料金つきで返す
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, courtID string, date time.Time) ([]SlotView, error) {
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx, courtID, date); err == nil {
			var cached []SlotView
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("空き枠キャッシュの取得に失敗", zap.Error(err))
		}
	}

	ct, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		return nil, err
	}

	snap, err := s.checker.LoadSnapshot(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	specialRates := snap.SpecialRates()

	slots := timeslot.GenerateSlots(ct.HoursFor(date), SlotGranularity)
	views := make([]SlotView, len(slots))
	for i, slot := range slots {
		view := SlotView{
			Start:      slot.Start,
			End:        slot.End,
			StartClock: slot.Start.String(),
			EndClock:   slot.End.String(),
		}
		violations := s.checker.CheckSnapshot(ct, date, slot.Start, slot.End, snap)
		violations = dropDurationViolations(violations)
		if len(violations) == 0 {
			price := s.calc.Calculate(ct, date, slot.Start, slot.End, specialRates)
			view.Available = true
			view.Price = &price
		} else {
			first := violations[0]
			view.BlockedReason = string(first.Kind)
			for _, v := range violations {
				if v.Kind == conflict.KindReservation {
					view.ConflictingReservationID = v.ReservationID
					break
				}
			}
		}
		views[i] = view
	}

	if s.cache != nil {
		if payload, err := json.Marshal(views); err == nil {
			if err := s.cache.Set(ctx, courtID, date, payload, s.cacheTTL); err != nil {
				logger.Warn("空き枠キャッシュの保存に失敗", zap.Error(err))
			}
		}
	}
	return views, nil
}

// CheckAvailability は任意の時間帯（スロット境界に揃っていなくてもよい）の
// 空き判定を返す。空いていれば料金内訳も返す
func (s *AvailabilityService) CheckAvailability(ctx context.Context, courtID string, date time.Time, start, end timeslot.Minutes) (*AvailabilityResult, error) {
	if err := timeslot.ValidateRange(start, end); err != nil {
		return nil, err
	}
	ct, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		return nil, err
	}
	violations, snap, err := s.checker.Check(ctx, ct, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("空き判定に失敗: %w", err)
	}
	if len(violations) > 0 {
		return &AvailabilityResult{Available: false, Violations: violations}, nil
	}
	price := s.calc.Calculate(ct, date, start, end, snap.SpecialRates())
	return &AvailabilityResult{Available: true, Price: &price}, nil
}

// dropDurationViolations はスロット一覧表示用に duration 違反を除く
// 30分スロット自体はコートの最短予約時間より短いことがあるが、
// 利用者は複数スロットをまとめて予約するため一覧では空きとして見せる
func dropDurationViolations(violations []conflict.Violation) []conflict.Violation {
	kept := violations[:0]
	for _, v := range violations {
		if v.Kind != conflict.KindDuration {
			kept = append(kept, v)
		}
	}
	return kept
}
