package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// ストア側の重複制約に抵触した場合は conflict.Error を返す
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Reservation, error)

	// GetActiveByCourtDate はコート・日付の pending/confirmed 予約を取得する
	GetActiveByCourtDate(ctx context.Context, courtID string, date time.Time) ([]*Reservation, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetStalePending は作成から一定時間を過ぎても支払い確認されない
	// pending 予約を取得する
	GetStalePending(ctx context.Context, olderThan time.Duration) ([]*Reservation, error)

	// GetNoShowCandidates は開始日時が指定時刻より前の confirmed 予約を取得する
	GetNoShowCandidates(ctx context.Context, startedBefore time.Time) ([]*Reservation, error)
}
