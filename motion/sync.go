package motion

// Side-table sizes (spec.md §3 "side tables"). Each must be a power of
// two so cursors can wrap with a mask, and small enough that its index
// fits in indexBits.
const (
	SyncPosSize       = 16
	SyncBlockInfoSize = 16
)

// PositionSync is one snapshot recorded by a SYNC_POS / SYNC_POS_E
// command: the absolute stepper position (all axes) at the moment the
// command was queued.
type PositionSync struct {
	Position [NumAxes]int64
}

// BlockInfoSync is one snapshot recorded by a SYNC_BLOCK_INFO command:
// enough of the originating planner block for the job tracker/status
// line to attribute progress back to a file offset (spec.md §4.6).
type BlockInfoSync struct {
	FilePos  int64
	Steps    [NumAxes]int64
	Extruder int
}

// SyncTables holds the two side tables addressed by the low bits of a
// Command word, plus their independent write cursors. Like Ring, this
// is single-producer (the controller) / single-consumer (whatever drains
// the Ring) per axis; the two tables never share a cursor.
type SyncTables struct {
	pos     [SyncPosSize]PositionSync
	posNext int

	block     [SyncBlockInfoSize]BlockInfoSync
	blockNext int
}

// NewSyncTables returns a zeroed pair of side tables.
func NewSyncTables() *SyncTables { return &SyncTables{} }

// Reset zeroes both tables and their cursors (spec.md §3 "reset() zeroes
// indices and buffers" applies to the side tables too, not just the
// command ring).
func (s *SyncTables) Reset() {
	*s = SyncTables{}
}

// PushPosition records pos into the position side table and pushes the
// corresponding sync command onto ring. meta selects BitSyncPos (all
// axes) or BitSyncPosE (extruder-only sync, per Block.SyncE). The table
// entry is written before the command is pushed, so a concurrent
// consumer that pops the command never observes it before the entry it
// references (spec.md §5's publish-before-publish ordering).
func (s *SyncTables) PushPosition(ring *Ring, meta Command, pos [NumAxes]int64) bool {
	idx := s.posNext
	cmd := withIndex(meta, idx)
	s.pos[idx] = PositionSync{Position: pos}
	if !ring.Push(cmd) {
		return false
	}
	s.posNext = (s.posNext + 1) % SyncPosSize
	return true
}

// PushBlockInfo records info into the block-info side table and pushes
// a SYNC_BLOCK_INFO command onto ring.
func (s *SyncTables) PushBlockInfo(ring *Ring, info BlockInfoSync) bool {
	idx := s.blockNext
	cmd := withIndex(BitSyncBlockInfo, idx)
	s.block[idx] = info
	if !ring.Push(cmd) {
		return false
	}
	s.blockNext = (s.blockNext + 1) % SyncBlockInfoSize
	return true
}

// Position looks up a recorded position snapshot by the index packed
// into a BitSyncPos/BitSyncPosE command (consumer-side read).
func (s *SyncTables) Position(cmd Command) PositionSync {
	return s.pos[cmd.Index()]
}

// BlockInfo looks up a recorded block-info snapshot by the index packed
// into a BitSyncBlockInfo command (consumer-side read).
func (s *SyncTables) BlockInfo(cmd Command) BlockInfoSync {
	return s.block[cmd.Index()]
}

// SyncCommandFor derives the sync meta bit a newly loaded block should
// emit before its first vector sample: BitSyncPosE when the block only
// advances the extruder (b.SyncE), BitSyncPos otherwise.
func SyncCommandFor(b *Block) Command {
	if b.SyncE {
		return BitSyncPosE
	}
	return BitSyncPos
}
