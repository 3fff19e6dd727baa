package schedule

import "errors"

// Schedule ドメインのエラー定義
var (
	ErrBlockNotFound       = errors.New("ブロックが見つかりません")
	ErrCourtIDRequired     = errors.New("コートIDは必須です")
	ErrUnknownBlockType    = errors.New("不明なブロック種別です")
	ErrInvalidOverrideRate = errors.New("特別料金は0より大きい必要があります")
)
