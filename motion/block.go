package motion

import "math"

// Block is the planner-block input consumed from upstream (spec.md §3
// "Block (input)"). It is immutable during processing; the motion core
// never mutates a Block.
type Block struct {
	// Steps is the per-axis step count for this move (always >= 0; sign
	// travels separately in DirBits).
	Steps [NumAxes]int64
	// DirBits has bit `axis` set when that axis moves in the negative
	// direction.
	DirBits uint8

	Millimeters      float64 // total move length
	StepEventCount   int64   // steps on the dominant axis
	InitialRate      float64 // steps/sec at block start
	FinalRate        float64 // steps/sec at block end
	NominalSpeed     float64 // mm/sec the planner would like to reach
	Acceleration     float64 // mm/sec^2, same magnitude accel or decel

	FilePos  int64 // source file offset, for the job tracker
	Extruder int   // extruder index
	SyncE    bool  // sync_e: position sync should snapshot E only

	// Position is the absolute stepper position snapshot at the start of
	// this block, used for SYNC_POS / SYNC_POS_E commands (spec.md §4.6).
	Position [NumAxes]int64
}

func (b *Block) dirSign(a Axis) float64 {
	if b.DirBits&(1<<uint(a)) != 0 {
		return -1
	}
	return 1
}

// StepsToMM is the planner's steps-to-mm conversion array, indexed by
// Axis, consumed from configuration per spec.md §6.
type StepsToMM [NumAxes]float64

// BlockState is the FTM-local parameterization of one planner block
// (spec.md §3 "FTM block state") plus the trapezoid fields computed by
// loadBlockData (spec.md §4.2).
type BlockState struct {
	StartPosn Vec
	Ratio     Vec

	FP, AccelP, DecelP float64
	Fs                 float64
	S1e, S2e           float64

	N1, N2, N3   uint32
	MaxIntervals uint32

	Extruder int
}

// LoadBlockData converts one planner block into FTM-local trapezoid
// parameters (spec.md §4.2). endPosnPrevBlock is read for the new
// startPosn and updated in place with the cumulative move, matching the
// §3 invariant `endPosn_prevBlock == sum of per-block moveDist`.
//
// Per §7 "Fatal inconsistency", a block with zero length or zero
// step_event_count is rejected (ErrZeroLengthBlock) rather than
// dividing by zero; the caller should skip such a block entirely.
func LoadBlockData(b *Block, stepsToMM StepsToMM, fs float64, endPosnPrevBlock *Vec) (BlockState, error) {
	if b.Millimeters == 0 || b.StepEventCount == 0 {
		return BlockState{}, ErrZeroLengthBlock
	}

	var moveDist Vec
	for a := Axis(0); a < NumAxes; a++ {
		moveDist[a] = float64(b.Steps[a]) * stepsToMM[a] * b.dirSign(a)
	}

	totalLength := b.Millimeters
	var st BlockState
	st.StartPosn = *endPosnPrevBlock
	st.Extruder = b.Extruder

	oneOverLength := 1.0 / totalLength
	for a := Axis(0); a < NumAxes; a++ {
		st.Ratio[a] = moveDist[a] * oneOverLength
	}

	spm := totalLength / float64(b.StepEventCount) // mm of move per dominant-axis step
	st.Fs = spm * b.InitialRate
	fe := spm * b.FinalRate

	accel := b.Acceleration
	oneOverAccel := 1.0 / accel

	fn := b.NominalSpeed
	lPrime := totalLength + 0.5*oneOverAccel*(st.Fs*st.Fs+fe*fe)

	t2 := lPrime/fn - oneOverAccel*fn
	if t2 < 0 {
		t2 = 0
		fn = math.Sqrt(lPrime * accel)
	}

	t1 := (fn - st.Fs) * oneOverAccel
	t3 := (fn - fe) * oneOverAccel

	st.N1 = uint32(math.Ceil(t1 * fs))
	st.N2 = uint32(math.Ceil(t2 * fs))
	st.N3 = uint32(math.Ceil(t3 * fs))

	ts := 1.0 / fs
	t1p := float64(st.N1) * ts
	t2p := float64(st.N2) * ts
	t3p := float64(st.N3) * ts

	st.FP = (2*totalLength - st.Fs*t1p - fe*t3p) / (t1p + 2*t2p + t3p)

	if st.N1 > 0 {
		st.AccelP = (st.FP - st.Fs) / t1p
	}
	st.DecelP = (fe - st.FP) / t3p

	st.S1e = st.Fs*t1p + 0.5*st.AccelP*t1p*t1p
	st.S2e = st.S1e + st.FP*t2p

	st.MaxIntervals = st.N1 + st.N2 + st.N3

	for a := Axis(0); a < NumAxes; a++ {
		endPosnPrevBlock[a] += moveDist[a]
	}

	return st, nil
}
