package motion

// Window sizing (spec.md §3 "Trajectory window", §4.4). Logical positions
// [0, BatchSize) are the ready batch; [BatchSize, WindowSize) is the
// pre-roll the shaper needs to look back into.
//
// These are variables, not constants, so a daemon can size them from its
// shaper's largest configured delay at startup; WindowSize must exceed
// the shaper ring length by at least BatchSize.
var (
	WindowSize = 128
	BatchSize  = 32
)

func lastBatchIdx() int { return WindowSize - BatchSize }

// Window is the per-axis trajectory buffer shared between the vector
// generator and the batch/interpolation stages (spec.md §3 "Trajectory
// window"). X/Y/Z/E each hold WindowSize samples.
type Window struct {
	X, Y, Z, E []float64
}

// NewWindow allocates a Window sized to the current WindowSize.
func NewWindow() *Window {
	return &Window{
		X: make([]float64, WindowSize),
		Y: make([]float64, WindowSize),
		Z: make([]float64, WindowSize),
		E: make([]float64, WindowSize),
	}
}

func (w *Window) reset() {
	for i := range w.X {
		w.X[i], w.Y[i], w.Z[i], w.E[i] = 0, 0, 0, 0
	}
}

func (w *Window) at(a Axis, i int) float64 {
	switch a {
	case AxisX:
		return w.X[i]
	case AxisY:
		return w.Y[i]
	case AxisZ:
		return w.Z[i]
	default:
		return w.E[i]
	}
}

func (w *Window) set(a Axis, i int, v float64) {
	switch a {
	case AxisX:
		w.X[i] = v
	case AxisY:
		w.Y[i] = v
	case AxisZ:
		w.Z[i] = v
	default:
		w.E[i] = v
	}
}

// PostProcessor is the FBS hook named in spec.md §4.4: it runs after the
// ready batch is copied into trajMod and before the batch is marked
// ready for interpolation. Frequency-based smoothing itself is a
// Non-goal (spec.md §1); this interface exists only so one can be
// plugged in later without touching BatchWindow.
type PostProcessor interface {
	Process(mod *Window, n int)
}

// NoopPostProcessor leaves the batch untouched; it is the default when
// no FBS implementation is configured.
type NoopPostProcessor struct{}

func (NoopPostProcessor) Process(*Window, int) {}

// BatchWindow implements spec.md §4.4: when a batch is ready and the
// downstream buffer is free, copy the ready batch into TrajMod, run the
// FBS hook, then slide the pre-roll forward so the next batch keeps the
// shaper's lookback intact.
type BatchWindow struct {
	Traj    *Window // fed by the vector generator
	TrajMod *Window // fed to the interpolator
	Post    PostProcessor
}

// NewBatchWindow allocates Traj/TrajMod and defaults Post to a no-op.
func NewBatchWindow() *BatchWindow {
	return &BatchWindow{Traj: NewWindow(), TrajMod: NewWindow(), Post: NoopPostProcessor{}}
}

// Slide performs the copy-then-shift step of §4.4. It must only be
// called when Generator reports BatchReady and the interpolator has
// finished with the previous TrajMod.
func (bw *BatchWindow) Slide() {
	copy(bw.TrajMod.X, bw.Traj.X)
	copy(bw.TrajMod.Y, bw.Traj.Y)
	copy(bw.TrajMod.Z, bw.Traj.Z)
	copy(bw.TrajMod.E, bw.Traj.E)

	bw.Post.Process(bw.TrajMod, BatchSize)

	last := lastBatchIdx()
	copy(bw.Traj.X[:last], bw.Traj.X[BatchSize:])
	copy(bw.Traj.Y[:last], bw.Traj.Y[BatchSize:])
	copy(bw.Traj.Z[:last], bw.Traj.Z[BatchSize:])
	copy(bw.Traj.E[:last], bw.Traj.E[BatchSize:])
}

// Reset zeroes both buffers.
func (bw *BatchWindow) Reset() {
	bw.Traj.reset()
	bw.TrajMod.reset()
}
