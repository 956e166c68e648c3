package motion

import (
	"sync/atomic"
)

// Bounds on work done per Tick (spec.md §4.7 "loop()" bounds the amount
// of vectorization and interpolation done per call so the controller
// stays cooperative rather than running one block to completion).
const (
	PointsPerLoop = 16 // trajectory samples generated per Tick
	StepsPerLoop  = 64 // interpolation sub-tick budget per Tick; whole samples (SubTicks each) are emitted while under it
)

// Controller is the cooperative FTM loop of spec.md §4.7: it pulls
// blocks from a BlockSource, vectorizes them into the trajectory window,
// slides ready batches into the modified window, and interpolates those
// batches into step/dir commands on Ring. It holds no goroutine of its
// own — callers drive it by calling Tick repeatedly (e.g. from a
// fixed-rate clock callback, see package clock) so that abort handling
// never races a background goroutine.
type Controller struct {
	src    BlockSource
	cfg    *ControlAPI
	shaper *Shaper
	gen    *Generator
	bw     *BatchWindow
	ring   *Ring
	sync   *SyncTables
	interp *Interpolator
	log    Logger

	endPosnPrevBlock Vec
	curBlock         *BlockState

	draining bool // source exhausted, flushing shaper runout padding
	done     bool // runout padding fully flushed; nothing left to do

	interpIdx    int  // read cursor into bw.TrajMod, [0, BatchSize)
	batchPending bool // a slid batch is waiting in bw.TrajMod for interpolate() to drain

	aborted atomic.Bool
}

// NewController wires a BlockSource, shaping/config state, and a ring of
// the given size into a Controller ready to Tick.
func NewController(src BlockSource, cfg *ControlAPI, shaper *Shaper, ringSize int, opts Options, log Logger) *Controller {
	return &Controller{
		src:    src,
		cfg:    cfg,
		shaper: shaper,
		gen:    NewGenerator(),
		bw:     NewBatchWindow(),
		ring:   NewRing(ringSize),
		sync:   NewSyncTables(),
		interp: NewInterpolator(opts),
		log:    log,
	}
}

// Abort requests a quickstop: the next Tick discards all in-flight
// trajectory/interpolation state and resets to idle before doing
// anything else, matching spec.md §4.7's abort handling. Safe to call
// from any goroutine.
func (c *Controller) Abort() {
	c.aborted.Store(true)
}

// Busy reports whether the controller still has outstanding work: a
// block in progress, queued commands not yet drained, a slid batch
// waiting to be interpolated into ring commands, or runout padding not
// yet flushed (spec.md:129 "busy = ring_busy ∨ block_in_flight ∨
// batch_pending ∨ runout_armed"). The planner's Quiescer.Synchronize
// should block until this is false before mutating shared config.
func (c *Controller) Busy() bool {
	return c.curBlock != nil || c.ring.Items() > 0 || c.draining || c.batchPending
}

// Done reports whether the block source has been fully consumed and its
// runout padding flushed: the controller is idle with nothing left to
// produce.
func (c *Controller) Done() bool { return c.done }

func (c *Controller) reset() {
	c.bw.Reset()
	c.gen.Reset()
	c.shaper.Reset()
	c.ring.Reset()
	c.sync.Reset()
	c.interp.Reset()
	c.curBlock = nil
	c.endPosnPrevBlock = Vec{}
	c.draining = false
	c.done = false
	c.interpIdx = 0
	c.batchPending = false
}

// Tick runs one bounded slice of work: abort handling, then up to
// PointsPerLoop trajectory samples, then interpolated samples of SubTicks
// commands each while fewer than StepsPerLoop sub-ticks have been emitted
// (so at least one sample when the ring has room for it), per spec.md §4.7.
func (c *Controller) Tick() {
	if c.aborted.Swap(false) {
		c.reset()
		if c.log != nil {
			c.log.Infof("motion: aborted, controller reset")
		}
		return
	}
	if c.done {
		return
	}

	c.vectorize()
	c.interpolate()
}

func (c *Controller) vectorize() {
	for i := 0; i < PointsPerLoop; i++ {
		// The next sample would complete a batch; hold off until the
		// previous one has been drained from bw.TrajMod.
		if c.batchPending && c.gen.BatchIdx() == WindowSize-1 {
			return
		}
		if c.curBlock == nil {
			if !c.loadNextBlock() {
				return
			}
		}

		step := c.gen.MakeVector(c.curBlock, c.cfg, c.shaper, c.bw.Traj)
		if step.BatchReady {
			c.bw.Slide()
			c.batchPending = true
		}
		if step.BlockDone {
			if c.draining {
				c.draining = false
				c.done = true
				c.curBlock = nil
				return
			}
			c.curBlock = nil
			c.src.Advance()
		}
	}
}

// loadNextBlock pulls the next planner block (or starts runout padding
// if the source is exhausted) and reports whether curBlock is now set.
func (c *Controller) loadNextBlock() bool {
	b, ok := c.src.NextBlock()
	if !ok {
		c.startRunout()
		return true
	}

	st, err := LoadBlockData(b, c.src.StepsPerMM(), c.cfg.cfg.SampleRate, &c.endPosnPrevBlock)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("motion: skipping block at file offset %d: %v", b.FilePos, err)
		}
		c.src.Advance()
		return false
	}

	if !c.sync.PushPosition(c.ring, SyncCommandFor(b), b.Position) {
		if c.log != nil {
			c.log.Warnf("motion: loading block at file offset %d: %v", b.FilePos, ErrRingFull)
		}
	}
	if !c.sync.PushBlockInfo(c.ring, BlockInfoSync{FilePos: b.FilePos, Steps: b.Steps, Extruder: b.Extruder}) {
		if c.log != nil {
			c.log.Warnf("motion: loading block at file offset %d: %v", b.FilePos, ErrRingFull)
		}
	}

	c.curBlock = &st
	return true
}

// startRunout synthesizes a zero-motion block long enough to flush the
// shaper's convolution ring and the remaining pre-roll window, per the
// reformulation recorded in SPEC_FULL.md: max_intervals = max(shaper
// delay, a minimum floor) + the distance still left in the window before
// the next batch boundary.
func (c *Controller) startRunout() {
	shaperIntervals := c.shaperMaxDelay()
	minIntervals := uint32(BatchSize)
	maxIntervals := shaperIntervals
	if minIntervals > maxIntervals {
		maxIntervals = minIntervals
	}
	maxIntervals += uint32(WindowSize - c.gen.BatchIdx())

	c.curBlock = &BlockState{
		StartPosn:    c.endPosnPrevBlock,
		MaxIntervals: maxIntervals,
	}
	c.draining = true
}

func (c *Controller) shaperMaxDelay() uint32 {
	var m uint32
	for i := 1; i <= c.shaper.X.MaxI; i++ {
		if c.shaper.X.N[i] > m {
			m = c.shaper.X.N[i]
		}
	}
	for i := 1; i <= c.shaper.Y.MaxI; i++ {
		if c.shaper.Y.N[i] > m {
			m = c.shaper.Y.N[i]
		}
	}
	return m
}

// interpolate drains ready batches from bw.TrajMod into Ring as Command
// words, one whole sample (SubTicks commands) at a time, starting a new
// sample only while fewer than StepsPerLoop sub-ticks have been emitted
// this call and the ring has room for a whole sample.
func (c *Controller) interpolate() {
	stepsPerMM := c.stepsPerMM()
	buf := make([]Command, 0, SubTicks)

	for emitted := 0; emitted < StepsPerLoop; emitted += SubTicks {
		if c.ring.Free() < SubTicks {
			return
		}
		if c.interpIdx >= BatchSize {
			return
		}

		sample := Vec{
			c.bw.TrajMod.at(AxisX, c.interpIdx),
			c.bw.TrajMod.at(AxisY, c.interpIdx),
			c.bw.TrajMod.at(AxisZ, c.interpIdx),
			c.bw.TrajMod.at(AxisE, c.interpIdx),
		}

		cmds := c.interp.Emit(sample, stepsPerMM, buf[:0])
		for _, cmd := range cmds {
			if !c.ring.Push(cmd) {
				if c.log != nil {
					c.log.Warnf("motion: interpolate: %v", ErrRingFull)
				}
				return
			}
		}
		c.interpIdx++
		if c.interpIdx == BatchSize {
			c.interpIdx = 0
			c.batchPending = false
		}
	}
}

func (c *Controller) stepsPerMM() [NumAxes]float64 {
	mmPerStep := c.src.StepsPerMM()
	var out [NumAxes]float64
	for a := Axis(0); a < NumAxes; a++ {
		if mmPerStep[a] != 0 {
			out[a] = 1.0 / mmPerStep[a]
		}
	}
	return out
}

// Ring exposes the command ring for a consumer (package gpio/clock) to
// drain.
func (c *Controller) Ring() *Ring { return c.ring }

// SyncTables exposes the side tables for a consumer to resolve
// BitSyncPos/BitSyncPosE/BitSyncBlockInfo commands it pops off Ring.
func (c *Controller) SyncTables() *SyncTables { return c.sync }

// Interpolator exposes the interpolator so a consumer can call
// SyncPosition after applying a popped position-sync command.
func (c *Controller) Interpolator() *Interpolator { return c.interp }
