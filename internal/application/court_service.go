package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/logger"
)

// CourtService はコートの登録・参照を提供する
type CourtService struct {
	courtRepo court.Repository
}

// NewCourtService は新しい CourtService を作成する
func NewCourtService(cr court.Repository) *CourtService {
	return &CourtService{courtRepo: cr}
}

// CreateCourtInput はコート作成の入力
type CreateCourtInput struct {
	FacilityID         string
	Name               string
	Hours              court.WeekHours
	BaseRate           float64
	PeakRate           float64
	WeekendRate        float64
	MinDurationMin     int
	MaxDurationMin     int
	AdvanceBookingDays int
	CancelDeadlineHrs  int
}

// CreateCourt はコートを登録する
func (s *CourtService) CreateCourt(ctx context.Context, input CreateCourtInput) (*court.Court, error) {
	ct := court.NewCourt(input.FacilityID, input.Name, input.Hours,
		input.BaseRate, input.PeakRate, input.WeekendRate,
		input.MinDurationMin, input.MaxDurationMin, input.AdvanceBookingDays, input.CancelDeadlineHrs)

	if err := ct.Validate(); err != nil {
		return nil, err
	}
	if err := s.courtRepo.Create(ctx, ct); err != nil {
		return nil, fmt.Errorf("コート作成に失敗: %w", err)
	}

	logger.Info("コートを登録",
		zap.String("court_id", ct.ID),
		zap.String("facility_id", ct.FacilityID),
		zap.String("name", ct.Name),
	)
	return ct, nil
}

// GetCourt は ID でコートを取得する
func (s *CourtService) GetCourt(ctx context.Context, id string) (*court.Court, error) {
	return s.courtRepo.GetByID(ctx, id)
}

// ListCourts は施設のコート一覧を取得する
func (s *CourtService) ListCourts(ctx context.Context, facilityID string) ([]*court.Court, error) {
	return s.courtRepo.List(ctx, facilityID)
}
