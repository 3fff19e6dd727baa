package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
	"github.com/sanosuguru/go-court-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-court-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/metrics"
)

// ReservationService は予約のライフサイクルを管理する書き込みパス
// 予約の状態・キャンセル情報の書き込みはこのサービスのみが行う
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	courtRepo       court.Repository
	checker         *ConflictChecker
	calc            Calculator
	lockManager     *redisinfra.LockManager
	cache           *redisinfra.AvailabilityCache
	publisher       EventPublisher
	metrics         *metrics.Metrics
}

// NewReservationService は新しい ReservationService を作成する
// lockManager・cache・publisher・m は nil でもよい
func NewReservationService(
	txManager transaction.Manager,
	rr reservation.Repository,
	cr court.Repository,
	checker *ConflictChecker,
	calc Calculator,
	lockManager *redisinfra.LockManager,
	cache *redisinfra.AvailabilityCache,
	publisher EventPublisher,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		txManager:       txManager,
		reservationRepo: rr,
		courtRepo:       cr,
		checker:         checker,
		calc:            calc,
		lockManager:     lockManager,
		cache:           cache,
		publisher:       publisher,
		metrics:         m,
	}
}

// CreateReservationInput は予約作成の入力
type CreateReservationInput struct {
	CourtID string
	UserID  string
	Date    time.Time
	Start   timeslot.Minutes
	End     timeslot.Minutes
	Notes   string
}

// CreateReservation は競合を再検証したうえで予約を pending 状態で永続化する
// 検出済みの競合もストア制約による競合も同じ conflict.Error として返す
func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	if err := timeslot.ValidateRange(input.Start, input.End); err != nil {
		return nil, err
	}

	ct, err := s.courtRepo.GetByID(ctx, input.CourtID)
	if err != nil {
		return nil, err
	}

	// コート・日付単位の分散ロックで同時作成の衝突を減らす
	// 最終的な一意性はストアの排他制約が保証する
	if s.lockManager != nil {
		lockKey := redisinfra.CourtDayLockKey(input.CourtID, input.Date)
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, fmt.Errorf("同じコートの予約処理が混み合っています: %w", err)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	violations, snap, err := s.checker.Check(ctx, ct, input.Date, input.Start, input.End)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		s.countReservation("conflict")
		return nil, conflict.NewError(violations)
	}

	price := s.calc.Calculate(ct, input.Date, input.Start, input.End, snap.SpecialRates())
	res := reservation.NewReservation(input.CourtID, input.UserID, input.Date, input.Start, input.End, input.Notes, price)
	if err := res.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		var conflictErr *conflict.Error
		if errors.As(err, &conflictErr) {
			s.countReservation("conflict")
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.afterWrite(ctx, res, EventReservationCreated)
	s.countReservation("success")
	logger.Info("予約を作成",
		zap.String("reservation_id", res.ID),
		zap.String("court_id", res.CourtID),
		zap.String("user_id", res.UserID),
	)
	return res, nil
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// GetUserReservations はユーザーの予約一覧を取得する
func (s *ReservationService) GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservationRepo.GetByUserID(ctx, userID, limit, offset)
}

// ConfirmPayment は支払い確認を受けて予約を confirmed に遷移する
func (s *ReservationService) ConfirmPayment(ctx context.Context, id, paymentRef string) (*reservation.Reservation, error) {
	return s.transition(ctx, id, EventReservationConfirmed, func(r *reservation.Reservation) error {
		return r.ConfirmPayment(paymentRef)
	})
}

// CheckIn は来場を記録する
func (s *ReservationService) CheckIn(ctx context.Context, id string, now time.Time) (*reservation.Reservation, error) {
	return s.transition(ctx, id, EventReservationCheckedIn, func(r *reservation.Reservation) error {
		return r.CheckIn(now)
	})
}

// CheckOut は退場を記録し予約を completed にする
func (s *ReservationService) CheckOut(ctx context.Context, id string, now time.Time) (*reservation.Reservation, error) {
	return s.transition(ctx, id, EventReservationCheckedOut, func(r *reservation.Reservation) error {
		return r.CheckOut(now)
	})
}

// CancelReservation は予約をキャンセルし返金額を記録する
// 返金の実行は外部の決済コラボレーターが行う
func (s *ReservationService) CancelReservation(ctx context.Context, id string, now time.Time, cancelledBy, reason string) (*reservation.Reservation, error) {
	res, err := s.transition(ctx, id, EventReservationCancelled, func(r *reservation.Reservation) error {
		return r.Cancel(now, cancelledBy, reason)
	})
	if err != nil {
		return nil, err
	}
	s.countReservation("cancelled")
	return res, nil
}

// CancelStalePending は支払い確認されないまま放置された pending 予約を
// まとめてキャンセルする（スイーパーから呼ばれる）
func (s *ReservationService) CancelStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.reservationRepo.GetStalePending(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("滞留予約の取得に失敗: %w", err)
	}
	count := 0
	for _, r := range stale {
		// 決済前なので返金は発生させない
		if _, err := s.transition(ctx, r.ID, EventReservationCancelled, func(res *reservation.Reservation) error {
			return res.CancelUnpaid(time.Now(), "system", "payment timeout")
		}); err != nil {
			logger.Error("滞留予約のキャンセルに失敗",
				zap.String("reservation_id", r.ID), zap.Error(err))
			continue
		}
		s.countReservation("cancelled")
		count++
	}
	return count, nil
}

// MarkNoShows はチェックイン可能時間を過ぎても来場しなかった
// confirmed 予約を no_show にする（スイーパーから呼ばれる）
func (s *ReservationService) MarkNoShows(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.reservationRepo.GetNoShowCandidates(ctx, now.Add(-reservation.CheckInLateWindow))
	if err != nil {
		return 0, fmt.Errorf("no_show候補の取得に失敗: %w", err)
	}
	count := 0
	for _, r := range candidates {
		if _, err := s.transition(ctx, r.ID, EventReservationNoShow, func(res *reservation.Reservation) error {
			return res.MarkNoShow(now)
		}); err != nil {
			logger.Error("no_showへの遷移に失敗",
				zap.String("reservation_id", r.ID), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// transition は取得→エンティティの状態遷移→トランザクション更新→
// 後処理（キャッシュ無効化・イベント発行）の共通パス
func (s *ReservationService) transition(ctx context.Context, id, eventKey string, apply func(*reservation.Reservation) error) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(res); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.afterWrite(ctx, res, eventKey)
	return res, nil
}

// afterWrite はキャッシュ無効化とイベント発行を行う
// どちらも失敗しても書き込み自体は成功扱いにする
func (s *ReservationService) afterWrite(ctx context.Context, res *reservation.Reservation, eventKey string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, res.CourtID, res.Date); err != nil {
			logger.Warn("空き枠キャッシュの無効化に失敗", zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishJSON(ctx, eventKey, newReservationEvent(res)); err != nil {
			logger.Warn("イベント発行に失敗",
				zap.String("routing_key", eventKey), zap.Error(err))
		}
	}
}

func (s *ReservationService) countReservation(status string) {
	if s.metrics != nil {
		s.metrics.ReservationsTotal.WithLabelValues(status).Inc()
	}
}
