package motion

// Limits for config values rejected per §7 "Config rejected".
const (
	MinZeta, MaxZeta             = 0.0, 1.0
	MinVtol, MaxVtol             = 0.0, 1.0
	MinBaseFreq, MaxBaseFreq     = MinShapeFreq, 200.0
	MinDynFreqK, MaxDynFreqK     = -10.0, 10.0
	MinLinearAdvK, MaxLinearAdvK = 0.0, 10.0
)

// Config is the FTM config store (spec.md §2 component 1): shaper mode,
// damping ratios, vibration tolerances, base shaping frequencies,
// dynamic-frequency gains, linear-advance gain, and enable flags. It is
// mutated only while the pipeline is quiesced (§3 "Lifecycles").
type Config struct {
	Mode ShaperMode

	Zeta     [2]float64 // index by Axis X=0,Y=1
	Vtol     [2]float64
	BaseFreq [2]float64
	DynFreqK [2]float64

	DynFreqMode DynFreqMode

	LinearAdvEnabled bool
	LinearAdvK       float64

	SampleRate float64 // F_s, samples/sec
}

// DefaultConfig returns reasonable defaults: shaping disabled (ShaperNone),
// 40Hz base frequency, linear advance off, and the given sample rate.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		Mode:       ShaperNone,
		BaseFreq:   [2]float64{40, 40},
		SampleRate: sampleRate,
	}
}

// ModeHasShaper reports whether the configured mode runs convolution.
func (c Config) ModeHasShaper() bool { return c.Mode.HasShaper() }

// Quiescer drains any in-flight planner work. The control API below
// calls Synchronize before mutating shared config, mirroring Marlin's
// planner.synchronize() calls in FTMotion::setMode/disable.
type Quiescer interface {
	Synchronize()
}

// Logger is the minimal leveled-logging surface the control API uses for
// diagnostics (config rejections, mode changes). *charmbracelet/log.Logger
// satisfies it; see cmd/ftmotiond for the real wiring.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// ControlAPI implements the control-plane calls of spec.md §6
// ("Control API"), called by G-code handlers off the motion core.
// It owns the Config and the live Shaper state, and keeps the two in
// sync whenever a change requires refreshing shaper amplitudes/delays.
type ControlAPI struct {
	cfg     Config
	shaper  *Shaper
	planner Quiescer
	log     Logger
}

// NewControlAPI wires a ControlAPI to the live shaper state it must
// refresh on mode/zeta/frequency changes, and to the planner it must
// drain before any mutation.
func NewControlAPI(cfg Config, shaper *Shaper, planner Quiescer, log Logger) *ControlAPI {
	api := &ControlAPI{cfg: cfg, shaper: shaper, planner: planner, log: log}
	api.refreshShaping()
	return api
}

// Config returns a copy of the current configuration.
func (c *ControlAPI) Config() Config { return c.cfg }

// Enable turns on the given mode and returns the previously active mode.
func (c *ControlAPI) Enable(mode ShaperMode) ShaperMode {
	return c.SetMode(mode)
}

// Disable quiesces the planner, switches to ShaperNone/no shaping, and
// returns the previously active mode (spec.md §6 "enable(mode)/disable()").
func (c *ControlAPI) Disable() ShaperMode {
	prev := c.cfg.Mode
	c.planner.Synchronize()
	c.cfg.Mode = ShaperNone
	c.refreshShaping()
	return prev
}

// SetMode quiesces the planner, updates the mode, and refreshes shaper
// A/N if the new mode has a shaper (spec.md §6 "setMode(mode)").
func (c *ControlAPI) SetMode(mode ShaperMode) ShaperMode {
	prev := c.cfg.Mode
	c.planner.Synchronize()
	c.cfg.Mode = mode
	c.refreshShaping()
	return prev
}

// SetZeta validates and applies a new damping ratio for one axis
// (0=X, 1=Y). Out-of-range values are rejected: the previous value is
// retained and a diagnostic is logged once (spec.md §7).
func (c *ControlAPI) SetZeta(axis int, value float64) error {
	if value < MinZeta || value >= MaxZeta {
		err := &ConfigError{Field: "zeta", Value: value, Min: MinZeta, Max: MaxZeta}
		c.reject(err)
		return err
	}
	c.planner.Synchronize()
	c.cfg.Zeta[axis] = value
	c.refreshShaping()
	return nil
}

// SetVtol validates and applies a new vibration tolerance for one axis.
func (c *ControlAPI) SetVtol(axis int, value float64) error {
	if value < MinVtol || value > MaxVtol {
		err := &ConfigError{Field: "vtol", Value: value, Min: MinVtol, Max: MaxVtol}
		c.reject(err)
		return err
	}
	c.planner.Synchronize()
	c.cfg.Vtol[axis] = value
	c.refreshShaping()
	return nil
}

// SetBaseFreq validates and applies a new base shaping frequency.
func (c *ControlAPI) SetBaseFreq(axis int, value float64) error {
	if value < MinBaseFreq || value > MaxBaseFreq {
		err := &ConfigError{Field: "baseFreq", Value: value, Min: MinBaseFreq, Max: MaxBaseFreq}
		c.reject(err)
		return err
	}
	c.planner.Synchronize()
	c.cfg.BaseFreq[axis] = value
	c.refreshShaping()
	return nil
}

// SetDynFreqK validates and applies a new dynamic-frequency gain.
func (c *ControlAPI) SetDynFreqK(axis int, value float64) error {
	if value < MinDynFreqK || value > MaxDynFreqK {
		err := &ConfigError{Field: "dynFreqK", Value: value, Min: MinDynFreqK, Max: MaxDynFreqK}
		c.reject(err)
		return err
	}
	c.planner.Synchronize()
	c.cfg.DynFreqK[axis] = value
	return nil
}

// SetLinearAdvance enables/disables linear advance and sets its gain K.
func (c *ControlAPI) SetLinearAdvance(enabled bool, k float64) error {
	if k < MinLinearAdvK || k > MaxLinearAdvK {
		err := &ConfigError{Field: "linearAdvanceK", Value: k, Min: MinLinearAdvK, Max: MaxLinearAdvK}
		c.reject(err)
		return err
	}
	c.planner.Synchronize()
	c.cfg.LinearAdvEnabled = enabled
	c.cfg.LinearAdvK = k
	return nil
}

func (c *ControlAPI) reject(err *ConfigError) {
	if c.log != nil {
		c.log.Warnf("config rejected: %s=%.4g out of range [%.4g, %.4g], keeping previous value",
			err.Field, err.Value, err.Min, err.Max)
	}
}

func (c *ControlAPI) refreshShaping() {
	if !c.cfg.ModeHasShaper() {
		return
	}
	c.shaper.X.UpdateAmplitudes(c.cfg.Mode, c.cfg.Zeta[0], c.cfg.Vtol[0])
	c.shaper.Y.UpdateAmplitudes(c.cfg.Mode, c.cfg.Zeta[1], c.cfg.Vtol[1])
	c.shaper.X.UpdateDelays(c.cfg.Mode, c.cfg.BaseFreq[0], c.cfg.Zeta[0], c.cfg.SampleRate)
	c.shaper.Y.UpdateDelays(c.cfg.Mode, c.cfg.BaseFreq[1], c.cfg.Zeta[1], c.cfg.SampleRate)
	if c.log != nil {
		c.log.Infof("shaper refreshed: mode=%d zeta=%v vtol=%v baseFreq=%v", c.cfg.Mode, c.cfg.Zeta, c.cfg.Vtol, c.cfg.BaseFreq)
	}
}

// refreshDynFreq re-derives and applies the effective shaping frequency
// from a dynamic-frequency source value (Z height or extruded mass),
// per spec.md §4.1 "Dynamic frequency". It recomputes nothing in Z-based
// mode when axisChanged is false (Z unchanged).
func (c *ControlAPI) refreshDynFreq(zOrE float64, axisChanged bool) {
	if c.cfg.DynFreqMode == DynFreqDisabled || !c.cfg.ModeHasShaper() {
		return
	}
	if c.cfg.DynFreqMode == DynFreqZBased && !axisChanged {
		return
	}
	xf := maxFloat(c.cfg.BaseFreq[0]+c.cfg.DynFreqK[0]*zOrE, MinShapeFreq)
	yf := maxFloat(c.cfg.BaseFreq[1]+c.cfg.DynFreqK[1]*zOrE, MinShapeFreq)
	c.shaper.X.UpdateDelays(c.cfg.Mode, xf, c.cfg.Zeta[0], c.cfg.SampleRate)
	c.shaper.Y.UpdateDelays(c.cfg.Mode, yf, c.cfg.Zeta[1], c.cfg.SampleRate)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
