// Command ftmserial exposes a running Controller over a pseudo-terminal
// so integration tests (or a real serial-oriented host app) can talk to
// it as if it were a USB-serial stepper board, without real hardware.
// Each line of input is a tiny textual block descriptor; each completed
// block is acknowledged with "ok".
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/creack/pty"
	"github.com/spf13/pflag"

	"github.com/doismellburning/ftmotion/motion"
)

type noopQuiescer struct{}

func (noopQuiescer) Synchronize() {}

type stderrLogger struct{}

func (stderrLogger) Infof(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }
func (stderrLogger) Warnf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

func main() {
	sampleRate := pflag.Float64P("sample-rate", "r", 1000, "Sample rate in Hz.")
	stepsPerMM := pflag.Float64P("steps-per-mm", "s", 80, "Steps per millimetre, applied to all axes.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ftmserial - expose a motion controller over a pty for integration testing.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ftmserial: opening pty: %v\n", err)
		os.Exit(1)
	}
	defer ptmx.Close()
	defer tty.Close()

	fmt.Printf("ftmserial listening on %s\n", tty.Name())

	stepsToMM := motion.StepsToMM{
		motion.AxisX: 1 / *stepsPerMM, motion.AxisY: 1 / *stepsPerMM,
		motion.AxisZ: 1 / *stepsPerMM, motion.AxisE: 1 / *stepsPerMM,
	}
	shaper := motion.NewShaper(64)
	api := motion.NewControlAPI(motion.DefaultConfig(*sampleRate), shaper, noopQuiescer{}, stderrLogger{})

	scanner := bufio.NewScanner(ptmx)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b, err := parseBlockLine(line, *stepsPerMM)
		if err != nil {
			fmt.Fprintf(ptmx, "error: %v\n", err)
			continue
		}

		src := motion.NewSliceSource([]motion.Block{b}, stepsToMM)
		ctrl := motion.NewController(src, api, shaper, 256, motion.Options{Rounding: motion.RoundNearest}, stderrLogger{})
		for !ctrl.Done() {
			ctrl.Tick()
			for {
				if _, ok := ctrl.Ring().Pop(); !ok {
					break
				}
			}
		}
		fmt.Fprintf(ptmx, "ok\n")
	}
}

// parseBlockLine parses "AXIS DISTANCE_MM FEEDRATE_MM_S", e.g. "X 10 50".
func parseBlockLine(line string, stepsPerMM float64) (motion.Block, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return motion.Block{}, fmt.Errorf("expected 'AXIS DISTANCE FEEDRATE', got %q", line)
	}

	var axis motion.Axis
	switch strings.ToUpper(fields[0]) {
	case "X":
		axis = motion.AxisX
	case "Y":
		axis = motion.AxisY
	case "Z":
		axis = motion.AxisZ
	case "E":
		axis = motion.AxisE
	default:
		return motion.Block{}, fmt.Errorf("unknown axis %q", fields[0])
	}

	dist, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return motion.Block{}, fmt.Errorf("bad distance: %w", err)
	}
	feed, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return motion.Block{}, fmt.Errorf("bad feedrate: %w", err)
	}

	var dirBits uint8
	if dist < 0 {
		dirBits |= 1 << uint(axis)
		dist = -dist
	}
	steps := int64(dist * stepsPerMM)

	var b motion.Block
	b.DirBits = dirBits
	b.Steps[axis] = steps
	b.Millimeters = dist
	b.StepEventCount = steps
	b.NominalSpeed = feed
	b.Acceleration = feed * 10
	return b, nil
}
