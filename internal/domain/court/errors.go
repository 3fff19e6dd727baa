package court

import "errors"

// Court ドメインのエラー定義
var (
	ErrCourtNotFound        = errors.New("コートが見つかりません")
	ErrCourtNameRequired    = errors.New("コート名は必須です")
	ErrFacilityIDRequired   = errors.New("施設IDは必須です")
	ErrNegativeRate         = errors.New("料金は0以上である必要があります")
	ErrInvalidDurationRange = errors.New("予約時間の下限・上限が不正です")
	ErrInvalidAdvanceDays   = errors.New("事前予約可能日数は0以上である必要があります")
)
