package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-court-reservation/internal/domain/conflict"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error     string               `json:"error"`
	Code      int                  `json:"code,omitempty"`
	RequestID string               `json:"request_id,omitempty"`
	Conflicts []conflict.Violation `json:"conflicts,omitempty"`
}

// CustomHTTPErrorHandler はハンドラーで処理されなかったエラーの最終変換点。
// ドメインの競合エラーがここまで来た場合も 409 として返す。
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	res := ErrorResponse{
		Code:      http.StatusInternalServerError,
		Error:     "内部サーバーエラー",
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}

	var he *echo.HTTPError
	var ce *conflict.Error
	switch {
	case errors.As(err, &ce):
		res.Code = http.StatusConflict
		res.Error = "指定された時間帯は利用できません"
		res.Conflicts = ce.Violations
	case errors.As(err, &he):
		res.Code = he.Code
		if m, ok := he.Message.(string); ok {
			res.Error = m
		} else {
			res.Error = http.StatusText(he.Code)
		}
	}

	if res.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", res.Code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	var sendErr error
	if c.Request().Method == http.MethodHead {
		sendErr = c.NoContent(res.Code)
	} else {
		sendErr = c.JSON(res.Code, res)
	}
	if sendErr != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(sendErr))
	}
}
