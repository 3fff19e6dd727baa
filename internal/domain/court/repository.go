package court

import "context"

// Repository はコートリポジトリのインターフェース
type Repository interface {
	// Create は新しいコートを作成する
	Create(ctx context.Context, c *Court) error

	// GetByID はIDからコートを取得する
	GetByID(ctx context.Context, id string) (*Court, error)

	// List は施設に属するコート一覧を取得する
	// facilityID が空の場合は全コートを返す
	List(ctx context.Context, facilityID string) ([]*Court, error)
}
