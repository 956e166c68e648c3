package motion

import "math"

// ShaperMode selects the input-shaping impulse sequence applied to the X
// and Y channels. ShaperNone disables shaping entirely (bypass): the
// vector generator then skips convolution altogether rather than running
// it with a zeroed table, so bypass output is bit-identical to the raw
// trajectory per §8 invariant 5.
type ShaperMode int

const (
	ShaperNone ShaperMode = iota
	ShaperZV
	ShaperZVD
	ShaperZVDD
	ShaperZVDDD
	ShaperEI
	Shaper2HEI
	Shaper3HEI
	ShaperMZV
)

// HasShaper reports whether m runs the convolution at all.
func (m ShaperMode) HasShaper() bool { return m != ShaperNone }

func (m ShaperMode) String() string {
	switch m {
	case ShaperNone:
		return "none"
	case ShaperZV:
		return "ZV"
	case ShaperZVD:
		return "ZVD"
	case ShaperZVDD:
		return "ZVDD"
	case ShaperZVDDD:
		return "ZVDDD"
	case ShaperEI:
		return "EI"
	case Shaper2HEI:
		return "2HEI"
	case Shaper3HEI:
		return "3HEI"
	case ShaperMZV:
		return "MZV"
	default:
		return "unknown"
	}
}

// MaxImpulses bounds the per-axis impulse count (largest mode is
// ZVDDD/3HEI at 4 extra impulses, i.e. A[0..4]).
const MaxImpulses = 5

// DynFreqMode selects how the shaping frequency is re-derived during a
// move, per §4.1 "Dynamic frequency".
type DynFreqMode int

const (
	DynFreqDisabled DynFreqMode = iota
	DynFreqZBased             // f = base + k*z, refreshed only when Z changes
	DynFreqMassBased          // f = base + k*e, refreshed every sample
)

// MinShapeFreq is the floor applied to the effective shaping frequency
// before recomputing delays (FTM_MIN_SHAPE_FREQ in spec.md §4.1).
const MinShapeFreq = 10.0

// AxisShaper holds the impulse amplitudes and sample delays for one
// shaped axis (X or Y), plus the ring of raw positions used to replay
// them (§3 "Shaper state per axis").
type AxisShaper struct {
	A      [MaxImpulses]float64
	N      [MaxImpulses]uint32
	MaxI   int
	dZi    []float64 // circular buffer, length ZMax
	lastHz float64   // last frequency N was computed for, for dynamic-freq change detection
}

// NewAxisShaper allocates the d_zi ring with the given capacity. zMax
// must exceed the largest delay in use (§3 invariant).
func NewAxisShaper(zMax int) *AxisShaper {
	return &AxisShaper{dZi: make([]float64, zMax)}
}

func (s *AxisShaper) zMax() int { return len(s.dZi) }

// UpdateAmplitudes recomputes A[0..MaxI] for the given mode, damping
// ratio zeta and vibration tolerance vtol, per the table in spec.md §4.1.
func (s *AxisShaper) UpdateAmplitudes(mode ShaperMode, zeta, vtol float64) {
	df := math.Sqrt(1 - zeta*zeta)
	K := math.Exp(-zeta * math.Pi / df)
	K2 := K * K

	switch mode {
	case ShaperZV:
		s.MaxI = 1
		s.A[0] = 1.0 / (1.0 + K)
		s.A[1] = s.A[0] * K

	case ShaperZVD:
		s.MaxI = 2
		s.A[0] = 1.0 / (1.0 + 2*K + K2)
		s.A[1] = s.A[0] * 2 * K
		s.A[2] = s.A[0] * K2

	case ShaperZVDD:
		s.MaxI = 3
		K3 := K2 * K
		s.A[0] = 1.0 / (1.0 + 3*K + 3*K2 + K3)
		s.A[1] = s.A[0] * 3 * K
		s.A[2] = s.A[0] * 3 * K2
		s.A[3] = s.A[0] * K3

	case ShaperZVDDD:
		s.MaxI = 4
		K3 := K2 * K
		K4 := K2 * K2
		s.A[0] = 1.0 / (1.0 + 4*K + 6*K2 + 4*K3 + K4)
		s.A[1] = s.A[0] * 4 * K
		s.A[2] = s.A[0] * 6 * K2
		s.A[3] = s.A[0] * 4 * K3
		s.A[4] = s.A[0] * K4

	case ShaperEI:
		s.MaxI = 2
		s.A[0] = 0.25 * (1 + vtol)
		s.A[1] = 0.5 * (1 - vtol) * K
		s.A[2] = s.A[0] * K2
		normalize(s.A[:3])

	case Shaper2HEI:
		s.MaxI = 3
		v2 := vtol * vtol
		X := math.Cbrt(v2 * (math.Sqrt(1-v2) + 1))
		if X == 0 {
			s.A[0] = 0.125 // vtol == 0: the limit of the expression below
		} else {
			s.A[0] = (3*X*X + 2*X + 3*v2) / (16 * X)
		}
		s.A[1] = (0.5 - s.A[0]) * K
		s.A[2] = s.A[1] * K
		s.A[3] = s.A[0] * K2 * K
		normalize(s.A[:4])

	case Shaper3HEI:
		s.MaxI = 4
		s.A[0] = (1 + 3*vtol + 2*math.Sqrt(2*vtol*(vtol+1))) / 16
		s.A[1] = 0.25 * (1 - vtol) * K
		s.A[2] = (0.5*(1+vtol) - 2*s.A[0]) * K2
		s.A[3] = s.A[1] * K2
		s.A[4] = s.A[0] * K2 * K2
		normalize(s.A[:5])

	case ShaperMZV:
		s.MaxI = 2
		B := math.Sqrt2 * K
		s.A[0] = 1.0 / (1.0 + B + K2)
		s.A[1] = s.A[0] * B
		s.A[2] = s.A[0] * K2

	default:
		for i := range s.A {
			s.A[i] = 0
		}
		s.MaxI = 0
	}
}

func normalize(a []float64) {
	var sum float64
	for _, v := range a {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range a {
		a[i] /= sum
	}
}

// UpdateDelays recomputes N[1..MaxI] for a shaping frequency f (Hz) and
// damping ratio zeta, sampled at fs (Hz). N[0] is always 0.
//
// T_h, the canonical half period, is 0.5/(f*sqrt(1-zeta^2)); MZV uses
// 0.375 in its place (spec.md §4.1's stated exception). Each following
// delay is i*N[1] rather than round(i*T_h*fs) recomputed per i, matching
// original_source/Marlin/src/module/ft_motion.cpp's additive form, so every
// delay is an exact integer multiple of N[1] (the rounding error of N[1]
// is multiplied by i rather than re-rounded per impulse).
func (s *AxisShaper) UpdateDelays(mode ShaperMode, f, zeta, fs float64) {
	s.lastHz = f
	for i := range s.N {
		s.N[i] = 0
	}
	if s.MaxI == 0 {
		return
	}
	df := math.Sqrt(1 - zeta*zeta)
	half := 0.5
	if mode == ShaperMZV {
		half = 0.375
	}
	n1 := uint32(math.Round(half / f / df * fs))
	for i := 1; i <= s.MaxI; i++ {
		s.N[i] = uint32(i) * n1
	}
}

// Convolve stashes raw into the ring at idx and returns the shaped
// output A[0]*raw + sum(A[i] * d_zi[idx-N[i]]). idx is the shared write
// cursor (zi_idx in spec.md §3), advanced by the caller once per sample
// across both axes.
func (s *AxisShaper) Convolve(idx int, raw float64) float64 {
	s.dZi[idx] = raw
	out := s.A[0] * raw
	zMax := uint32(s.zMax())
	for i := 1; i <= s.MaxI; i++ {
		diff := uint32(idx) - s.N[i]
		if s.N[i] > uint32(idx) {
			diff += zMax
		}
		out += s.A[i] * s.dZi[diff]
	}
	return out
}

// Reset zeroes the ring without touching the A/N tables (those are only
// mutated by config/dynamic-frequency updates per §3 lifecycle rules).
func (s *AxisShaper) Reset() {
	for i := range s.dZi {
		s.dZi[i] = 0
	}
}

// Shaper bundles the X and Y AxisShapers plus their shared write cursor.
type Shaper struct {
	X, Y *AxisShaper
	ZIdx int
}

// NewShaper builds a Shaper whose ring length is zMax (must exceed the
// largest N in use for any supported mode/frequency combination).
func NewShaper(zMax int) *Shaper {
	return &Shaper{X: NewAxisShaper(zMax), Y: NewAxisShaper(zMax)}
}

// Advance moves the shared write cursor forward by one sample, modulo
// the ring length.
func (s *Shaper) Advance() {
	s.ZIdx++
	if s.ZIdx == s.X.zMax() {
		s.ZIdx = 0
	}
}

// Reset zeroes both rings and the cursor.
func (s *Shaper) Reset() {
	s.X.Reset()
	s.Y.Reset()
	s.ZIdx = 0
}
