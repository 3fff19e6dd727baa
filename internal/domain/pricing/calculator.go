package pricing

import (
	"math"
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/court"
	"github.com/sanosuguru/go-court-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-court-reservation/internal/domain/schedule"
	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// PeakWindow はピーク料金が適用される時間帯 [StartHour, EndHour) を表す
type PeakWindow struct {
	StartHour int
	EndHour   int
}

// Config は料金計算の設定
// グローバルな可変状態を持たず、構築時に明示的に渡す
type Config struct {
	TaxRate        float64
	ServiceFeeRate float64
	PeakWindows    []PeakWindow
}

// DefaultConfig は標準の料金設定を返す
// 税率16%・サービス手数料3%・ピークは朝6〜8時と夜18〜22時
func DefaultConfig() Config {
	return Config{
		TaxRate:        0.16,
		ServiceFeeRate: 0.03,
		PeakWindows: []PeakWindow{
			{StartHour: 6, EndHour: 8},
			{StartHour: 18, EndHour: 22},
		},
	}
}

// Calculator は料金の内訳を計算する
// 副作用を持たず、同じ入力に対して常に同じ結果を返す
type Calculator struct {
	cfg Config
}

// NewCalculator は新しい Calculator を作成する
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate は指定コート・日付・時間帯の料金内訳を返す
// specialRates に窓と重なる特別料金枠があれば、その料金を基本料金として
// 使用し、ピーク・週末の倍率は適用しない
// 金額は返却時に小数点以下2桁へ丸める（途中計算は丸めない）
func (c *Calculator) Calculate(ct *court.Court, date time.Time, start, end timeslot.Minutes, specialRates []*schedule.Block) reservation.PriceBreakdown {
	durationHours := float64(end-start) / 60

	baseRate := ct.BaseRate
	peakMultiplier := 1.0
	weekendMultiplier := 1.0

	if override := findOverrideRate(specialRates, start, end); override != nil {
		baseRate = *override
	} else {
		if c.isPeak(start) && ct.BaseRate > 0 {
			peakMultiplier = ct.PeakRate / ct.BaseRate
		}
		if isWeekend(date) && ct.BaseRate > 0 {
			weekendMultiplier = ct.WeekendRate / ct.BaseRate
		}
	}

	subtotal := baseRate * durationHours * peakMultiplier * weekendMultiplier
	taxAmount := subtotal * c.cfg.TaxRate
	serviceFee := subtotal * c.cfg.ServiceFeeRate
	totalAmount := subtotal + taxAmount + serviceFee

	return reservation.PriceBreakdown{
		BaseRate:          baseRate,
		DurationHours:     durationHours,
		PeakMultiplier:    roundCents(peakMultiplier),
		WeekendMultiplier: roundCents(weekendMultiplier),
		Subtotal:          roundCents(subtotal),
		TaxAmount:         roundCents(taxAmount),
		ServiceFee:        roundCents(serviceFee),
		TotalAmount:       roundCents(totalAmount),
	}
}

// isPeak は開始時刻の「時」がピーク時間帯に含まれるかを返す
func (c *Calculator) isPeak(start timeslot.Minutes) bool {
	hour := start.Hour()
	for _, w := range c.cfg.PeakWindows {
		if hour >= w.StartHour && hour < w.EndHour {
			return true
		}
	}
	return false
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// findOverrideRate は窓と重なる特別料金枠（isBlocked=false）の料金を返す
func findOverrideRate(blocks []*schedule.Block, start, end timeslot.Minutes) *float64 {
	for _, b := range blocks {
		if b.IsBlocked || b.OverrideRate == nil {
			continue
		}
		if timeslot.Overlaps(start, end, b.Start, b.End) {
			return b.OverrideRate
		}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
