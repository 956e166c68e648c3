// Command jogctl is an interactive manual-jog console: arrow keys move
// X/Y, PageUp/PageDown move Z, and it feeds small single-axis Blocks
// into a live Controller so an operator can jog a machine without a
// full G-code host.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/term"
	"github.com/spf13/pflag"

	"github.com/doismellburning/ftmotion/motion"
)

const jogDistanceMM = 1.0
const jogFeedrate = 30.0 // mm/s

type noopQuiescer struct{}

func (noopQuiescer) Synchronize() {}

type stderrLogger struct{}

func (stderrLogger) Infof(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }
func (stderrLogger) Warnf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

func main() {
	var (
		stepsPerMM = pflag.Float64P("steps-per-mm", "s", 80, "Steps per millimetre, applied to all axes.")
		sampleRate = pflag.Float64P("sample-rate", "r", 1000, "Sample rate in Hz.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "jogctl - interactive manual jog console.\n\n")
		fmt.Fprintf(os.Stderr, "Arrow keys jog X/Y, PageUp/PageDown jog Z, q quits.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jogctl: opening terminal: %v\n", err)
		os.Exit(1)
	}
	defer tty.Close()
	defer tty.Restore()

	stepsToMM := motion.StepsToMM{
		motion.AxisX: 1 / *stepsPerMM, motion.AxisY: 1 / *stepsPerMM,
		motion.AxisZ: 1 / *stepsPerMM, motion.AxisE: 1 / *stepsPerMM,
	}

	shaper := motion.NewShaper(64)
	api := motion.NewControlAPI(motion.DefaultConfig(*sampleRate), shaper, noopQuiescer{}, stderrLogger{})

	fmt.Fprintf(os.Stderr, "jogctl ready. Arrows jog X/Y, PageUp/PageDown jog Z, q quits.\r\n")

	buf := make([]byte, 8)
	for {
		n, err := tty.Read(buf)
		if err != nil {
			break
		}
		axis, dist, quit := parseKey(buf[:n])
		if quit {
			break
		}
		if dist == 0 {
			continue
		}

		// A fresh Controller per jog command keeps this console simple:
		// each keypress is a single complete move run to completion
		// before the next key is read.
		src := motion.NewSliceSource([]motion.Block{jogBlock(axis, dist, *stepsPerMM)}, stepsToMM)
		ctrl := motion.NewController(src, api, shaper, 256, motion.Options{Rounding: motion.RoundNearest}, stderrLogger{})
		for !ctrl.Done() {
			ctrl.Tick()
			for {
				if _, ok := ctrl.Ring().Pop(); !ok {
					break
				}
			}
		}
	}
}

// parseKey interprets a raw terminal read as a jog command: arrow keys
// and PageUp/PageDown arrive as ANSI escape sequences ("\x1b[A" etc.).
func parseKey(b []byte) (axis motion.Axis, distMM float64, quit bool) {
	if len(b) == 1 && (b[0] == 'q' || b[0] == 'Q' || b[0] == 3) {
		return 0, 0, true
	}
	if len(b) >= 3 && b[0] == 0x1b && b[1] == '[' {
		switch b[2] {
		case 'A': // up
			return motion.AxisY, jogDistanceMM, false
		case 'B': // down
			return motion.AxisY, -jogDistanceMM, false
		case 'C': // right
			return motion.AxisX, jogDistanceMM, false
		case 'D': // left
			return motion.AxisX, -jogDistanceMM, false
		case '5': // PageUp
			return motion.AxisZ, jogDistanceMM, false
		case '6': // PageDown
			return motion.AxisZ, -jogDistanceMM, false
		}
	}
	return 0, 0, false
}

func jogBlock(axis motion.Axis, distMM, stepsPerMM float64) motion.Block {
	dist := distMM
	var dirBits uint8
	if dist < 0 {
		dirBits |= 1 << uint(axis)
		dist = -dist
	}
	steps := int64(dist * stepsPerMM)
	rate := jogFeedrate

	var b motion.Block
	b.DirBits = dirBits
	b.Steps[axis] = steps
	b.Millimeters = dist
	b.StepEventCount = steps
	b.NominalSpeed = rate
	b.Acceleration = rate * 10
	return b
}
