package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// パッケージ共通のロガー。cmd/api が起動時に Set で差し替える。
var log = newDefault()

func newDefault() *zap.Logger {
	return NewLogger("development")
}

// NewLogger は環境名に応じたロガーを構築する。
// production は JSON 出力、それ以外は開発向けのコンソール出力になる。
func NewLogger(env string) *zap.Logger {
	var cfg zap.Config
	switch env {
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.InitialFields = map[string]any{"service": "court-reservation"}
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// levelFromEnv は LOG_LEVEL からログレベルを解決する。未設定・不正値は info。
func levelFromEnv() zapcore.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zapcore.InfoLevel
	}
	lvl, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Set はパッケージ共通ロガーを差し替える。
func Set(l *zap.Logger) {
	log = l
}

// Get は現在のパッケージ共通ロガーを返す。
func Get() *zap.Logger {
	return log
}

func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { log.Fatal(msg, fields...) }

// With は共通ロガーにフィールドを付与した子ロガーを返す。
func With(fields ...zap.Field) *zap.Logger {
	return log.With(fields...)
}

// Sync はバッファされたログを書き出す。プロセス終了前に呼ぶ。
func Sync() error {
	return log.Sync()
}
