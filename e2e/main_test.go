package e2e

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-court-reservation/internal/config"
	"github.com/sanosuguru/go-court-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-court-reservation/internal/infrastructure/redis"
)

var (
	testDB      *sqlx.DB
	redisClient *redis.Client
)

// TestMain はE2Eテストのエントリポイント
// DB・Redisが起動していない環境ではスイート全体をスキップする
func TestMain(m *testing.M) {
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0) // DB未起動時はスキップ
	}
	testDB = db

	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		os.Exit(1)
	}

	rc, err := redisinfra.NewClient(&redisinfra.Config{Addr: cfg.Redis.Addr()})
	if err != nil {
		db.Close()
		os.Exit(0) // Redis未起動時はスキップ
	}
	redisClient = rc

	code := m.Run()

	cleanupTables()
	redisClient.Close()
	db.Close()

	os.Exit(code)
}

// cleanupTables はテーブルをクリーンアップ
func cleanupTables() {
	testDB.Exec("TRUNCATE TABLE schedule_blocks, reservations, courts RESTART IDENTITY CASCADE")
}
