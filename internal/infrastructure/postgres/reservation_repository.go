package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
	"github.com/sanosuguru/go-court-reservation/internal/domain/transaction"
)

// exclusion_violation: 同一コート・同一日の時間帯重複は
// EXCLUDE 制約（btree_gist + int4range）がDB層で防ぐ
const pgExclusionViolation = "23P01"

type reservationRow struct {
	ID           string     `db:"id"`
	CourtID      string     `db:"court_id"`
	UserID       string     `db:"user_id"`
	Date         time.Time  `db:"date"`
	StartMin     int        `db:"start_min"`
	EndMin       int        `db:"end_min"`
	DurationMin  int        `db:"duration_min"`
	Price        []byte     `db:"price"`
	Status       string     `db:"status"`
	Notes        string     `db:"notes"`
	PaymentRef   string     `db:"payment_ref"`
	CheckedInAt  *time.Time `db:"checked_in_at"`
	CheckedOutAt *time.Time `db:"checked_out_at"`
	LateArrival  bool       `db:"late_arrival"`
	LateMinutes  int        `db:"late_minutes"`
	Cancellation []byte     `db:"cancellation"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

const reservationColumns = `id, court_id, user_id, date, start_min, end_min, duration_min, price, status, notes, payment_ref, checked_in_at, checked_out_at, late_arrival, late_minutes, cancellation, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	price, err := json.Marshal(res.Price)
	if err != nil {
		return fmt.Errorf("料金内訳のシリアライズに失敗: %w", err)
	}
	query := `INSERT INTO reservations (court_id, user_id, date, start_min, end_min, duration_min, price, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		res.CourtID, res.UserID, res.Date, int(res.Start), int(res.End), res.DurationMin,
		price, string(res.Status), res.Notes, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return conflict.NewError([]conflict.Violation{{
				Kind:    conflict.KindReservation,
				Message: "指定時間帯は既に予約されています",
			}})
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return toReservationEntity(&row)
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY date DESC, start_min DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return toReservationEntities(rows)
}

func (r *ReservationRepository) GetActiveByCourtDate(ctx context.Context, courtID string, date time.Time) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE court_id = $1 AND date = $2 AND status IN ('pending', 'confirmed') ORDER BY start_min`
	if err := r.db.SelectContext(ctx, &rows, query, courtID, date); err != nil {
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return toReservationEntities(rows)
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	var cancellation []byte
	if res.Cancellation != nil {
		var err error
		cancellation, err = json.Marshal(res.Cancellation)
		if err != nil {
			return fmt.Errorf("キャンセル記録のシリアライズに失敗: %w", err)
		}
	}
	query := `UPDATE reservations SET status = $1, payment_ref = $2, checked_in_at = $3, checked_out_at = $4, late_arrival = $5, late_minutes = $6, cancellation = $7, updated_at = $8 WHERE id = $9`
	result, err := sqlxTx.ExecContext(ctx, query,
		string(res.Status), res.PaymentRef, res.CheckedInAt, res.CheckedOutAt,
		res.LateArrival, res.LateMinutes, cancellation, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) GetStalePending(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = 'pending' AND created_at < NOW() - ($1 * interval '1 second')`
	if err := r.db.SelectContext(ctx, &rows, query, int(olderThan.Seconds())); err != nil {
		return nil, fmt.Errorf("滞留予約取得に失敗: %w", err)
	}
	return toReservationEntities(rows)
}

func (r *ReservationRepository) GetNoShowCandidates(ctx context.Context, startedBefore time.Time) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	// 開始日時 = date + start_min 分
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = 'confirmed' AND (date + start_min * interval '1 minute') < $1`
	if err := r.db.SelectContext(ctx, &rows, query, startedBefore); err != nil {
		return nil, fmt.Errorf("no_show候補の取得に失敗: %w", err)
	}
	return toReservationEntities(rows)
}

func toReservationEntities(rows []reservationRow) ([]*reservation.Reservation, error) {
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		res, err := toReservationEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		result[i] = res
	}
	return result, nil
}

func toReservationEntity(row *reservationRow) (*reservation.Reservation, error) {
	var price reservation.PriceBreakdown
	if err := json.Unmarshal(row.Price, &price); err != nil {
		return nil, fmt.Errorf("料金内訳のデシリアライズに失敗: %w", err)
	}
	var cancellation *reservation.Cancellation
	if len(row.Cancellation) > 0 {
		cancellation = &reservation.Cancellation{}
		if err := json.Unmarshal(row.Cancellation, cancellation); err != nil {
			return nil, fmt.Errorf("キャンセル記録のデシリアライズに失敗: %w", err)
		}
	}
	return &reservation.Reservation{
		ID: row.ID, CourtID: row.CourtID, UserID: row.UserID,
		Date:  row.Date.UTC(),
		Start: timeslot.Minutes(row.StartMin), End: timeslot.Minutes(row.EndMin),
		DurationMin: row.DurationMin,
		Price:       price,
		Status:      reservation.Status(row.Status),
		Notes:       row.Notes, PaymentRef: row.PaymentRef,
		CheckedInAt: row.CheckedInAt, CheckedOutAt: row.CheckedOutAt,
		LateArrival: row.LateArrival, LateMinutes: row.LateMinutes,
		Cancellation: cancellation,
		CreatedAt:    row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
