package application

import (
	"context"
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

// ScheduleService はメンテナンス等の利用不可枠と特別料金枠を管理する
// ScheduleBlock の書き込みはこのサービスのみが行う
type ScheduleService struct {
	blockRepo       schedule.Repository
	reservationRepo reservation.Repository
	courtRepo       court.Repository
	cache           *redisinfra.AvailabilityCache
}

// NewScheduleService は新しい ScheduleService を作成する
func NewScheduleService(br schedule.Repository, rr reservation.Repository, cr court.Repository, cache *redisinfra.AvailabilityCache) *ScheduleService {
	return &ScheduleService{blockRepo: br, reservationRepo: rr, courtRepo: cr, cache: cache}
}

// CreateBlockInput は利用不可枠作成の入力
type CreateBlockInput struct {
	CourtID string
	Date    time.Time
	Start   timeslot.Minutes
	End     timeslot.Minutes
	Type    schedule.BlockType
	Reason  string
}

// CreateBlock は利用不可枠を作成する
// アクティブな予約と重なる場合は conflict.Error で拒否する
// （ブロック作成が既存予約を黙ってキャンセルすることは決してない）
func (s *ScheduleService) CreateBlock(ctx context.Context, input CreateBlockInput) (*schedule.Block, error) {
	if _, err := s.courtRepo.GetByID(ctx, input.CourtID); err != nil {
		return nil, err
	}

	b := schedule.NewBlock(input.CourtID, input.Date, input.Start, input.End, input.Type, input.Reason)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	// 予約との重複のみを検査する（営業時間等はブロックには適用しない）
	active, err := s.reservationRepo.GetActiveByCourtDate(ctx, input.CourtID, input.Date)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗: %w", err)
	}
	if violations := ReservationOverlaps(input.Start, input.End, active); len(violations) > 0 {
		return nil, conflict.NewError(violations)
	}

	if err := s.blockRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("ブロック作成に失敗: %w", err)
	}

	s.invalidate(ctx, b.CourtID, b.Date)
	logger.Info("利用不可枠を作成",
		zap.String("block_id", b.ID),
		zap.String("court_id", b.CourtID),
		zap.String("type", string(b.Type)),
	)
	return b, nil
}

// RemoveBlock はブロックを無条件に削除する
func (s *ScheduleService) RemoveBlock(ctx context.Context, id string) error {
	b, err := s.blockRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blockRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, b.CourtID, b.Date)
	return nil
}

// CreateSpecialRateInput は特別料金枠作成の入力
type CreateSpecialRateInput struct {
	CourtID string
	Date    time.Time
	Start   timeslot.Minutes
	End     timeslot.Minutes
	Rate    float64
}

// CreateSpecialRate は特別料金枠を作成する
// 料金計算側が標準のピーク・週末料金より優先して参照する
func (s *ScheduleService) CreateSpecialRate(ctx context.Context, input CreateSpecialRateInput) (*schedule.Block, error) {
	if _, err := s.courtRepo.GetByID(ctx, input.CourtID); err != nil {
		return nil, err
	}

	b := schedule.NewSpecialRate(input.CourtID, input.Date, input.Start, input.End, input.Rate)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.blockRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("特別料金枠の作成に失敗: %w", err)
	}

	s.invalidate(ctx, b.CourtID, b.Date)
	return b, nil
}

// GetBlocks はコート・日付のブロック一覧を取得する
func (s *ScheduleService) GetBlocks(ctx context.Context, courtID string, date time.Time) ([]*schedule.Block, error) {
	return s.blockRepo.GetByCourtAndDate(ctx, courtID, date)
}

func (s *ScheduleService) invalidate(ctx context.Context, courtID string, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, courtID, date); err != nil {
		logger.Warn("空き枠キャッシュの無効化に失敗", zap.Error(err))
	}
}
