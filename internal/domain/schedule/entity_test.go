package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-court-reservation/internal/domain/timeslot"
)

var testDate = time.Date(2026, 3, 14, 15, 4, 5, 0, time.Local)

func TestNewBlock_Validate(t *testing.T) {
	tests := []struct {
		name      string
		courtID   string
		start     timeslot.Minutes
		end       timeslot.Minutes
		blockType BlockType
		wantErr   error
	}{
		{name: "正常なメンテナンス枠", courtID: "court-1", start: 600, end: 720, blockType: BlockTypeMaintenance},
		{name: "貸切イベント枠", courtID: "court-1", start: 600, end: 720, blockType: BlockTypePrivateEvent},
		{name: "コートID未指定", courtID: "", start: 600, end: 720, blockType: BlockTypeMaintenance, wantErr: ErrCourtIDRequired},
		{name: "開始と終了が同じ", courtID: "court-1", start: 600, end: 600, blockType: BlockTypeMaintenance, wantErr: timeslot.ErrInvalidRange},
		{name: "不明な種別", courtID: "court-1", start: 600, end: 720, blockType: BlockType("holiday"), wantErr: ErrUnknownBlockType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBlock(tt.courtID, testDate, tt.start, tt.end, tt.blockType, "定期整備")
			err := b.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, b.IsBlocked)
			assert.Equal(t, tt.blockType, b.Type)
		})
	}
}

func TestNewBlock_NormalizesDate(t *testing.T) {
	b := NewBlock("court-1", testDate, 600, 720, BlockTypeWeather, "荒天")
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), b.Date)
}

func TestNewSpecialRate_Validate(t *testing.T) {
	t.Run("正常な特別料金枠", func(t *testing.T) {
		b := NewSpecialRate("court-1", testDate, 600, 720, 250)
		require.NoError(t, b.Validate())
		assert.False(t, b.IsBlocked)
		assert.Equal(t, BlockTypeSpecialRate, b.Type)
		require.NotNil(t, b.OverrideRate)
		assert.Equal(t, 250.0, *b.OverrideRate)
	})

	t.Run("料金が0は不正", func(t *testing.T) {
		b := NewSpecialRate("court-1", testDate, 600, 720, 0)
		assert.ErrorIs(t, b.Validate(), ErrInvalidOverrideRate)
	})

	t.Run("料金が負は不正", func(t *testing.T) {
		b := NewSpecialRate("court-1", testDate, 600, 720, -100)
		assert.ErrorIs(t, b.Validate(), ErrInvalidOverrideRate)
	})
}
