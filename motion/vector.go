package motion

import "math"

// Generator is the vector generator of spec.md §4.3: it produces one
// multi-axis trajectory sample per call by integrating the trapezoid
// described by a BlockState, optionally applying linear advance to the
// extruder channel and shaping convolution to X/Y.
type Generator struct {
	idx      uint32 // makeVector_idx
	batchIdx int    // makeVector_batchIdx

	eRawZ1      float64
	eAdvancedZ1 float64

	lastZ float64 // Z seen by the last Z-based dynamic-frequency check
}

// NewGenerator returns a Generator whose batch index starts at the
// pre-roll boundary, matching reset()'s non-unified-window behavior
// (spec.md §4.4, and see SPEC_FULL.md on the unified-vs-windowed choice).
func NewGenerator() *Generator {
	g := &Generator{}
	g.Reset()
	return g
}

// Reset zeroes the generator's progress counters and linear-advance
// state (spec.md §3 "reset() zeroes indices and buffers").
func (g *Generator) Reset() {
	g.idx = 0
	last := lastBatchIdx()
	if last > BatchSize {
		g.batchIdx = last
	} else {
		g.batchIdx = BatchSize
	}
	g.eRawZ1 = 0
	g.eAdvancedZ1 = 0
	g.lastZ = math.NaN() // first sample always counts as a Z change
}

// Step is the result of one Generator.MakeVector call.
type Step struct {
	BatchReady bool // window filled to WindowSize; batch handoff due
	BlockDone  bool // idx reached MaxIntervals; block is fully vectorized
}

// MakeVector emits traj[batchIdx] for every axis, advances idx/batchIdx,
// and applies linear advance and shaper convolution in the order spec.md
// §4.3 describes: trapezoid sample -> linear advance (E only) -> dynamic
// frequency refresh -> shaper convolution (X/Y only) -> batch/idx
// bookkeeping.
func (g *Generator) MakeVector(st *BlockState, cfg *ControlAPI, shaper *Shaper, traj *Window) Step {
	c := cfg.cfg
	ts := 1.0 / c.SampleRate
	tau := float64(g.idx+1) * ts

	var dist, accelK float64
	switch {
	case g.idx < st.N1:
		dist = st.Fs*tau + 0.5*st.AccelP*tau*tau
		accelK = st.AccelP
	case g.idx < st.N1+st.N2:
		dist = st.S1e + st.FP*(tau-float64(st.N1)*ts)
	default:
		tau -= float64(st.N1+st.N2) * ts
		dist = st.S2e + st.FP*tau + 0.5*st.DecelP*tau*tau
		accelK = st.DecelP
	}

	for a := Axis(0); a < NumAxes; a++ {
		traj.set(a, g.batchIdx, st.StartPosn[a]+st.Ratio[a]*dist)
	}

	if c.LinearAdvEnabled {
		eNew := traj.at(AxisE, g.batchIdx)
		dedt := (eNew - g.eRawZ1) * c.SampleRate
		if st.Ratio[AxisE] > 0 {
			dedt += accelK * c.LinearAdvK
		}
		g.eRawZ1 = eNew
		g.eAdvancedZ1 += dedt * ts
		traj.set(AxisE, g.batchIdx, g.eAdvancedZ1)
	}

	switch c.DynFreqMode {
	case DynFreqZBased:
		z := traj.at(AxisZ, g.batchIdx)
		cfg.refreshDynFreq(z, z != g.lastZ)
		g.lastZ = z
	case DynFreqMassBased:
		cfg.refreshDynFreq(traj.at(AxisE, g.batchIdx), true)
	}

	if c.ModeHasShaper() {
		x := shaper.X.Convolve(shaper.ZIdx, traj.at(AxisX, g.batchIdx))
		y := shaper.Y.Convolve(shaper.ZIdx, traj.at(AxisY, g.batchIdx))
		traj.set(AxisX, g.batchIdx, x)
		traj.set(AxisY, g.batchIdx, y)
		shaper.Advance()
	}

	var step Step
	g.batchIdx++
	if g.batchIdx == WindowSize {
		g.batchIdx = lastBatchIdx()
		step.BatchReady = true
	}

	g.idx++
	if g.idx == st.MaxIntervals {
		step.BlockDone = true
		g.idx = 0
	}

	return step
}

// BatchIdx exposes the current write position in the window, used by
// Controller to compute runout padding.
func (g *Generator) BatchIdx() int { return g.batchIdx }
