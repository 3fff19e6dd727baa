package timeslot

// DayHours はある曜日の営業時間を表す
type DayHours struct {
	Open   Minutes `json:"open_min"`
	Close  Minutes `json:"close_min"`
	Closed bool    `json:"closed"`
}

// Slot は予約候補となる固定長の半開区間 [Start, End) を表す
type Slot struct {
	Start Minutes
	End   Minutes
}

// GenerateSlots は営業時間 [open, close) を granularity 刻みで分割した
// スロット列を返す。close を超える端数のスロットは含めない。
// 休業日（Closed=true）は空のスライスを返す。
func GenerateSlots(day DayHours, granularity Minutes) []Slot {
	if day.Closed || granularity <= 0 || day.Close <= day.Open {
		return []Slot{}
	}
	slots := make([]Slot, 0, int((day.Close-day.Open)/granularity))
	for start := day.Open; start+granularity <= day.Close; start += granularity {
		slots = append(slots, Slot{Start: start, End: start + granularity})
	}
	return slots
}
