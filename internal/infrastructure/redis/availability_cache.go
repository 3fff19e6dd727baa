package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCache はコート×日付単位の空き枠一覧をキャッシュする
// 値は JSON 済みバイト列をそのまま保持し、内容には関知しない
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// Get は空き枠一覧をキャッシュから取得する
func (c *AvailabilityCache) Get(ctx context.Context, courtID string, date time.Time) ([]byte, error) {
	key := c.key(courtID, date)
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// Set は空き枠一覧をキャッシュに保存する
func (c *AvailabilityCache) Set(ctx context.Context, courtID string, date time.Time, payload []byte, ttl time.Duration) error {
	key := c.key(courtID, date)
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はコート×日付のキャッシュを無効化する
// 予約やブロックの書き込み後に呼ばれる
func (c *AvailabilityCache) Invalidate(ctx context.Context, courtID string, date time.Time) error {
	key := c.key(courtID, date)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) key(courtID string, date time.Time) string {
	return fmt.Sprintf("availability:%s:%s", courtID, date.Format("2006-01-02"))
}
