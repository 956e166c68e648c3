package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncTables_PositionRoundTrips(t *testing.T) {
	ring := NewRing(16)
	st := NewSyncTables()

	pos := [NumAxes]int64{AxisX: 10, AxisY: -5, AxisZ: 100, AxisE: 3}
	ok := st.PushPosition(ring, BitSyncPos, pos)
	assert.True(t, ok)

	cmd, ok := ring.Pop()
	assert.True(t, ok)
	assert.NotZero(t, cmd&BitSyncPos)

	got := st.Position(cmd)
	assert.Equal(t, pos, got.Position)
}

func TestSyncTables_BlockInfoRoundTrips(t *testing.T) {
	ring := NewRing(16)
	st := NewSyncTables()

	info := BlockInfoSync{FilePos: 4096, Steps: [NumAxes]int64{1, 2, 3, 4}, Extruder: 1}
	ok := st.PushBlockInfo(ring, info)
	assert.True(t, ok)

	cmd, ok := ring.Pop()
	assert.True(t, ok)
	assert.NotZero(t, cmd&BitSyncBlockInfo)
	assert.Equal(t, info, st.BlockInfo(cmd))
}

func TestSyncTables_ResetClearsCursors(t *testing.T) {
	ring := NewRing(16)
	st := NewSyncTables()
	for i := 0; i < 3; i++ {
		st.PushPosition(ring, BitSyncPos, [NumAxes]int64{})
	}
	st.Reset()
	assert.Equal(t, 0, st.posNext)
	assert.Equal(t, 0, st.blockNext)
}

func TestSyncCommandFor(t *testing.T) {
	assert.Equal(t, BitSyncPosE, SyncCommandFor(&Block{SyncE: true}))
	assert.Equal(t, BitSyncPos, SyncCommandFor(&Block{SyncE: false}))
}
