package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-court-reservation/internal/domain/transaction"
)

// txWrapper は sqlx.Tx を transaction.Tx として公開する
type txWrapper struct {
	*sqlx.Tx
}

func (t *txWrapper) Commit() error   { return t.Tx.Commit() }
func (t *txWrapper) Rollback() error { return t.Tx.Rollback() }

// TxManager は sqlx.DB 上のトランザクションマネージャー。
// 予約作成の重複排除はDB制約が担うため、分離レベルは Read Committed で足りる。
type TxManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{
		db:   db,
		opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始エラー: %w", err)
	}
	return &txWrapper{Tx: tx}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す。
// このパッケージのリポジトリ実装だけが使う。
func UnwrapTx(tx transaction.Tx) *sqlx.Tx {
	if w, ok := tx.(*txWrapper); ok {
		return w.Tx
	}
	return nil
}
