package schedule

import (
	"time"

	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

// BlockType はブロックの種別を表す
type BlockType string

const (
	BlockTypeMaintenance      BlockType = "maintenance"
	BlockTypePrivateEvent     BlockType = "private_event"
	BlockTypeWeather          BlockType = "weather"
	BlockTypeStaffUnavailable BlockType = "staff_unavailable"
	BlockTypeOther            BlockType = "other"

	// BlockTypeSpecialRate は利用不可枠ではなく特別料金枠を示す
	BlockTypeSpecialRate BlockType = "special_rate"
)

var validBlockTypes = map[BlockType]struct{}{
	BlockTypeMaintenance:      {},
	BlockTypePrivateEvent:     {},
	BlockTypeWeather:          {},
	BlockTypeStaffUnavailable: {},
	BlockTypeOther:            {},
}

// Block はコートの特定日・時間帯に対する利用不可枠、
// または特別料金枠を表す
type Block struct {
	ID           string
	CourtID      string
	Date         time.Time // 日付のみ（UTC 0時に正規化）
	Start        timeslot.Minutes
	End          timeslot.Minutes
	IsBlocked    bool
	Type         BlockType // IsBlocked=true のときのみ有効
	Reason       string
	OverrideRate *float64 // IsBlocked=false のときのみ有効
	CreatedAt    time.Time
}

// NewBlock は利用不可枠（メンテナンス等）を作成する
func NewBlock(courtID string, date time.Time, start, end timeslot.Minutes, blockType BlockType, reason string) *Block {
	return &Block{
		CourtID:   courtID,
		Date:      Midnight(date),
		Start:     start,
		End:       end,
		IsBlocked: true,
		Type:      blockType,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

// NewSpecialRate は特別料金枠を作成する
func NewSpecialRate(courtID string, date time.Time, start, end timeslot.Minutes, rate float64) *Block {
	return &Block{
		CourtID:      courtID,
		Date:         Midnight(date),
		Start:        start,
		End:          end,
		IsBlocked:    false,
		Type:         BlockTypeSpecialRate,
		OverrideRate: &rate,
		CreatedAt:    time.Now(),
	}
}

// Validate はブロックの検証を行う
func (b *Block) Validate() error {
	if b.CourtID == "" {
		return ErrCourtIDRequired
	}
	if err := timeslot.ValidateRange(b.Start, b.End); err != nil {
		return err
	}
	if b.IsBlocked {
		if _, ok := validBlockTypes[b.Type]; !ok {
			return ErrUnknownBlockType
		}
	} else {
		if b.OverrideRate == nil || *b.OverrideRate <= 0 {
			return ErrInvalidOverrideRate
		}
	}
	return nil
}

// Midnight は日付を UTC 0時に正規化する
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
