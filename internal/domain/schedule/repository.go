package schedule

import (
	"context"
	"time"
)

// Repository はスケジュールブロックリポジトリのインターフェース
type Repository interface {
	// Create は新しいブロックを作成する
	Create(ctx context.Context, b *Block) error

	// GetByID はIDからブロックを取得する
	GetByID(ctx context.Context, id string) (*Block, error)

	// GetByCourtAndDate はコート・日付に紐づくブロック一覧を取得する
	GetByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*Block, error)

	// Delete はブロックを削除する
	Delete(ctx context.Context, id string) error
}
