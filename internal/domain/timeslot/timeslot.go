package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// Minutes は 0:00 からの経過分で時刻を表す
type Minutes int

// ParseClock は "HH:MM"（24時間表記）を Minutes に変換する
func ParseClock(s string) (Minutes, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Minutes(h*60 + m), nil
}

// String は "HH:MM" 形式の文字列を返す
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Hour は時（0〜23）を返す
func (m Minutes) Hour() int {
	return int(m) / 60
}

// Overlaps は2つの半開区間 [aStart, aEnd) と [bStart, bEnd) が重なるかを返す
// 端点が接しているだけの場合は重ならない
func Overlaps(aStart, aEnd, bStart, bEnd Minutes) bool {
	return aStart < bEnd && aEnd > bStart
}

// ValidateRange は start < end であることを検証する
func ValidateRange(start, end Minutes) error {
	if end <= start {
		return fmt.Errorf("%w: %s〜%s", ErrInvalidRange, start, end)
	}
	return nil
}
