package timeslot

import "errors"

// Timeslot ドメインのエラー定義
var (
	ErrInvalidClock = errors.New("時刻の形式が不正です（HH:MM 24時間表記）")
	ErrInvalidRange = errors.New("終了時刻は開始時刻より後である必要があります")
)
