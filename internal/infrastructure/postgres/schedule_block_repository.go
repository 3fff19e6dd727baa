package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

type scheduleBlockRow struct {
	ID           string    `db:"id"`
	CourtID      string    `db:"court_id"`
	Date         time.Time `db:"date"`
	StartMin     int       `db:"start_min"`
	EndMin       int       `db:"end_min"`
	IsBlocked    bool      `db:"is_blocked"`
	BlockType    string    `db:"block_type"`
	Reason       string    `db:"reason"`
	OverrideRate *float64  `db:"override_rate"`
	CreatedAt    time.Time `db:"created_at"`
}

const scheduleBlockColumns = `id, court_id, date, start_min, end_min, is_blocked, block_type, reason, override_rate, created_at`

type ScheduleBlockRepository struct{ db *sqlx.DB }

func NewScheduleBlockRepository(db *sqlx.DB) *ScheduleBlockRepository {
	return &ScheduleBlockRepository{db: db}
}

func (r *ScheduleBlockRepository) Create(ctx context.Context, b *schedule.Block) error {
	query := `INSERT INTO schedule_blocks (court_id, date, start_min, end_min, is_blocked, block_type, reason, override_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		b.CourtID, b.Date, int(b.Start), int(b.End), b.IsBlocked,
		string(b.Type), b.Reason, b.OverrideRate, b.CreatedAt,
	).Scan(&b.ID); err != nil {
		return fmt.Errorf("ブロック作成に失敗: %w", err)
	}
	return nil
}

func (r *ScheduleBlockRepository) GetByID(ctx context.Context, id string) (*schedule.Block, error) {
	var row scheduleBlockRow
	query := `SELECT ` + scheduleBlockColumns + ` FROM schedule_blocks WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrBlockNotFound
		}
		return nil, fmt.Errorf("ブロック取得に失敗: %w", err)
	}
	return toBlockEntity(&row), nil
}

func (r *ScheduleBlockRepository) GetByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*schedule.Block, error) {
	var rows []scheduleBlockRow
	query := `SELECT ` + scheduleBlockColumns + ` FROM schedule_blocks WHERE court_id = $1 AND date = $2 ORDER BY start_min`
	if err := r.db.SelectContext(ctx, &rows, query, courtID, date); err != nil {
		return nil, fmt.Errorf("ブロック一覧取得に失敗: %w", err)
	}
	result := make([]*schedule.Block, len(rows))
	for i := range rows {
		result[i] = toBlockEntity(&rows[i])
	}
	return result, nil
}

func (r *ScheduleBlockRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedule_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ブロック削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schedule.ErrBlockNotFound
	}
	return nil
}

func toBlockEntity(row *scheduleBlockRow) *schedule.Block {
	return &schedule.Block{
		ID: row.ID, CourtID: row.CourtID,
		Date:  row.Date.UTC(),
		Start: timeslot.Minutes(row.StartMin), End: timeslot.Minutes(row.EndMin),
		IsBlocked: row.IsBlocked,
		Type:      schedule.BlockType(row.BlockType),
		Reason:    row.Reason, OverrideRate: row.OverrideRate,
		CreatedAt: row.CreatedAt,
	}
}

var _ schedule.Repository = (*ScheduleBlockRepository)(nil)
