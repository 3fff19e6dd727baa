package middleware

import (
	"crypto/subtle"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// MetricsConfig は /metrics エンドポイントの Basic 認証設定
type MetricsConfig struct {
	User     string
	Password string
}

// LoadMetricsConfig は環境変数 METRICS_USER / METRICS_PASSWORD から設定を読み込む
func LoadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		User:     os.Getenv("METRICS_USER"),
		Password: os.Getenv("METRICS_PASSWORD"),
	}
}

// IsEnabled は認証が有効かどうかを返す。両方設定されている場合のみ有効。
func (c *MetricsConfig) IsEnabled() bool {
	return c.User != "" && c.Password != ""
}

func (c *MetricsConfig) match(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}

// MetricsBasicAuth は /metrics 用の Basic 認証ミドルウェアを返す。
// 認証設定がない場合はパススルーになる(ローカル開発用)。
func MetricsBasicAuth() echo.MiddlewareFunc {
	cfg := LoadMetricsConfig()

	if !cfg.IsEnabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
		return cfg.match(username, password), nil
	})
}
