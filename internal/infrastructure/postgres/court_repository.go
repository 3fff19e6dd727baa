package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
)

type courtRow struct {
	ID                 string    `db:"id"`
	FacilityID         string    `db:"facility_id"`
	Name               string    `db:"name"`
	OperatingHours     []byte    `db:"operating_hours"`
	BaseRate           float64   `db:"base_rate"`
	PeakRate           float64   `db:"peak_rate"`
	WeekendRate        float64   `db:"weekend_rate"`
	MinDurationMin     int       `db:"min_duration_min"`
	MaxDurationMin     int       `db:"max_duration_min"`
	AdvanceBookingDays int       `db:"advance_booking_days"`
	CancelDeadlineHrs  int       `db:"cancel_deadline_hrs"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type CourtRepository struct{ db *sqlx.DB }

func NewCourtRepository(db *sqlx.DB) *CourtRepository {
	return &CourtRepository{db: db}
}

func (r *CourtRepository) Create(ctx context.Context, c *court.Court) error {
	// 営業時間は曜日ごとの構造を jsonb で保持する
	hours, err := json.Marshal(c.Hours)
	if err != nil {
		return fmt.Errorf("営業時間のシリアライズに失敗: %w", err)
	}
	query := `INSERT INTO courts (facility_id, name, operating_hours, base_rate, peak_rate, weekend_rate, min_duration_min, max_duration_min, advance_booking_days, cancel_deadline_hrs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		c.FacilityID, c.Name, hours, c.BaseRate, c.PeakRate, c.WeekendRate,
		c.MinDurationMin, c.MaxDurationMin, c.AdvanceBookingDays, c.CancelDeadlineHrs,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("コート作成に失敗: %w", err)
	}
	return nil
}

func (r *CourtRepository) GetByID(ctx context.Context, id string) (*court.Court, error) {
	var row courtRow
	query := `SELECT id, facility_id, name, operating_hours, base_rate, peak_rate, weekend_rate, min_duration_min, max_duration_min, advance_booking_days, cancel_deadline_hrs, created_at, updated_at FROM courts WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, court.ErrCourtNotFound
		}
		return nil, fmt.Errorf("コート取得に失敗: %w", err)
	}
	return toCourtEntity(&row)
}

func (r *CourtRepository) List(ctx context.Context, facilityID string) ([]*court.Court, error) {
	var rows []courtRow
	query := `SELECT id, facility_id, name, operating_hours, base_rate, peak_rate, weekend_rate, min_duration_min, max_duration_min, advance_booking_days, cancel_deadline_hrs, created_at, updated_at FROM courts`
	var err error
	if facilityID != "" {
		err = r.db.SelectContext(ctx, &rows, query+` WHERE facility_id = $1 ORDER BY name`, facilityID)
	} else {
		err = r.db.SelectContext(ctx, &rows, query+` ORDER BY name`)
	}
	if err != nil {
		return nil, fmt.Errorf("コート一覧取得に失敗: %w", err)
	}
	result := make([]*court.Court, len(rows))
	for i := range rows {
		c, err := toCourtEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func toCourtEntity(row *courtRow) (*court.Court, error) {
	var hours court.WeekHours
	if err := json.Unmarshal(row.OperatingHours, &hours); err != nil {
		return nil, fmt.Errorf("営業時間のデシリアライズに失敗: %w", err)
	}
	return &court.Court{
		ID: row.ID, FacilityID: row.FacilityID, Name: row.Name,
		Hours:    hours,
		BaseRate: row.BaseRate, PeakRate: row.PeakRate, WeekendRate: row.WeekendRate,
		MinDurationMin: row.MinDurationMin, MaxDurationMin: row.MaxDurationMin,
		AdvanceBookingDays: row.AdvanceBookingDays, CancelDeadlineHrs: row.CancelDeadlineHrs,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

var _ court.Repository = (*CourtRepository)(nil)
