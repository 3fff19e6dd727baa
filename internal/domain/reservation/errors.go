package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound  = errors.New("予約が見つかりません")
	ErrInvalidState         = errors.New("現在の状態ではその操作はできません")
	ErrOutsideCheckInWindow = errors.New("チェックイン可能時間外です")
	ErrNoShowTooEarly       = errors.New("チェックイン可能時間が終わるまで no_show にはできません")
	ErrCourtIDRequired      = errors.New("コートIDは必須です")
	ErrUserIDRequired       = errors.New("ユーザーIDは必須です")
)
