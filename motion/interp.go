package motion

import "math"

// Rounding selects how a trajectory sample's mm position is converted to
// an integer step count (spec.md §9 "STEPS_ROUNDING" open question).
type Rounding int

const (
	// RoundNearest rounds to the nearest integer step, matching the
	// opt-in STEPS_ROUNDING behavior in ft_motion.cpp. It is the
	// default here because truncation biases every axis toward the
	// origin, which visibly undershoots short, slow moves.
	RoundNearest Rounding = iota
	// RoundTrunc truncates toward zero, matching ft_motion.cpp's
	// default (non-STEPS_ROUNDING) build.
	RoundTrunc
)

func (r Rounding) apply(v float64) int64 {
	if r == RoundNearest {
		return int64(math.Round(v))
	}
	return int64(v)
}

// SubTicks is the number of interpolation sub-steps per trajectory
// sample (spec.md §4.5 "S sub-ticks"). The stepper consumer drains the
// ring at SampleRate*SubTicks. A Command word carries at most one STEP
// pulse per axis, so SubTicks is also the hard ceiling on how many steps
// any single axis can emit for one sample: it must be sized above the
// highest per-sample step count the configuration can demand (steps per
// mm times top feedrate, divided by sample rate), the same way WindowSize
// and BatchSize are sized for their own worst case rather than fixed at
// a value convenient for the common one.
var SubTicks = 128

// Options configures the interpolator.
type Options struct {
	Rounding Rounding
}

// Interpolator converts a stream of per-axis mm positions into per-axis
// integer step targets and emits SubTicks Bresenham-spaced Command words
// per sample (spec.md §4.5). One Interpolator instance is shared across
// all four axes so direction bits land in the same Command word.
type Interpolator struct {
	opts Options

	target [NumAxes]int64 // last emitted integer step position
	err    [NumAxes]int64 // Bresenham error accumulator, scaled by SubTicks
}

// NewInterpolator returns an Interpolator with its step/error state
// zeroed.
func NewInterpolator(opts Options) *Interpolator {
	return &Interpolator{opts: opts}
}

// Reset zeroes the integer step position and error accumulators (spec.md
// §3 "reset() zeroes indices and buffers"); callers must also reissue a
// SYNC_POS command afterward so the consumer's absolute position tracking
// stays correct.
func (ip *Interpolator) Reset() {
	for a := range ip.target {
		ip.target[a] = 0
		ip.err[a] = 0
	}
}

// SyncPosition forces the integer step position to match pos exactly,
// without emitting step commands, for use immediately after a SYNC_POS
// command is consumed.
func (ip *Interpolator) SyncPosition(pos [NumAxes]int64) {
	for a := range ip.target {
		ip.target[a] = pos[a]
		ip.err[a] = 0
	}
}

// Emit converts one trajectory sample (mm, per axis) into SubTicks
// Command words appended to out, and returns the updated slice. Each
// word carries STEP_<AXIS> for every axis that should step on that
// sub-tick and DIR_<AXIS> for every axis currently moving negative,
// spread via Bresenham error accumulation so steps land as evenly as
// possible across the SubTicks sub-period rather than bursting at one
// edge.
func (ip *Interpolator) Emit(sample Vec, stepsPerMM [NumAxes]float64, out []Command) []Command {
	var wantSteps [NumAxes]int64
	var dir [NumAxes]bool
	for a := Axis(0); a < NumAxes; a++ {
		want := ip.opts.Rounding.apply(sample[a] * stepsPerMM[a])
		delta := want - ip.target[a]
		wantSteps[a] = delta
		dir[a] = delta < 0
		if dir[a] {
			wantSteps[a] = -delta
		}
	}

	for tick := 0; tick < SubTicks; tick++ {
		var cmd Command
		for a := Axis(0); a < NumAxes; a++ {
			if wantSteps[a] == 0 {
				continue
			}
			if dir[a] {
				cmd |= dirBit[a]
			}
			ip.err[a] += wantSteps[a]
			if ip.err[a] >= int64(SubTicks) {
				ip.err[a] -= int64(SubTicks)
				cmd |= stepBit[a]
				if dir[a] {
					ip.target[a]--
				} else {
					ip.target[a]++
				}
			}
		}
		out = append(out, cmd)
	}

	return out
}
