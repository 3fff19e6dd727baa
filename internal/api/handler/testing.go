package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-court-reservation/internal/api"
)

// NewTestEcho はハンドラーテスト用のEchoインスタンスを作成する。
// 本番と同じバリデーターとエラーハンドラーを組み込む。
func NewTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}
