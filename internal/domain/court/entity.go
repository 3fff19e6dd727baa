package court

import (
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// WeekHours は曜日ごとの営業時間を表す
type WeekHours struct {
	Monday    timeslot.DayHours `json:"monday"`
	Tuesday   timeslot.DayHours `json:"tuesday"`
	Wednesday timeslot.DayHours `json:"wednesday"`
	Thursday  timeslot.DayHours `json:"thursday"`
	Friday    timeslot.DayHours `json:"friday"`
	Saturday  timeslot.DayHours `json:"saturday"`
	Sunday    timeslot.DayHours `json:"sunday"`
}

// For は指定した曜日の営業時間を返す
func (w WeekHours) For(day time.Weekday) timeslot.DayHours {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

// Court は予約可能なコートエンティティを表す
// 施設管理側が所有するため、このコアからは読み取り専用で扱う
type Court struct {
	ID                 string
	FacilityID         string
	Name               string
	Hours              WeekHours
	BaseRate           float64 // 1時間あたりの基本料金
	PeakRate           float64 // ピーク時間帯の料金
	WeekendRate        float64 // 週末の料金
	MinDurationMin     int     // 最短予約時間（分）
	MaxDurationMin     int     // 最長予約時間（分）
	AdvanceBookingDays int     // 何日先まで予約できるか
	CancelDeadlineHrs  int     // キャンセル期限（時間）
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewCourt は新しいコートを作成する
func NewCourt(facilityID, name string, hours WeekHours, baseRate, peakRate, weekendRate float64, minDurationMin, maxDurationMin, advanceBookingDays, cancelDeadlineHrs int) *Court {
	now := time.Now()
	return &Court{
		FacilityID:         facilityID,
		Name:               name,
		Hours:              hours,
		BaseRate:           baseRate,
		PeakRate:           peakRate,
		WeekendRate:        weekendRate,
		MinDurationMin:     minDurationMin,
		MaxDurationMin:     maxDurationMin,
		AdvanceBookingDays: advanceBookingDays,
		CancelDeadlineHrs:  cancelDeadlineHrs,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Validate はコートの検証を行う
func (c *Court) Validate() error {
	if c.Name == "" {
		return ErrCourtNameRequired
	}
	if c.FacilityID == "" {
		return ErrFacilityIDRequired
	}
	if c.BaseRate < 0 || c.PeakRate < 0 || c.WeekendRate < 0 {
		return ErrNegativeRate
	}
	if c.MinDurationMin <= 0 || c.MaxDurationMin <= 0 || c.MinDurationMin > c.MaxDurationMin {
		return ErrInvalidDurationRange
	}
	if c.AdvanceBookingDays < 0 {
		return ErrInvalidAdvanceDays
	}
	return nil
}

// HoursFor は指定日の曜日に対応する営業時間を返す
func (c *Court) HoursFor(date time.Time) timeslot.DayHours {
	return c.Hours.For(date.Weekday())
}
