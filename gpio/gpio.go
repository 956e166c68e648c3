// Package gpio drives real STEP/DIR pins from the command ring
// produced by package motion, using libgpiod's character-device ABI via
// go-gpiocdev.
package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/doismellburning/ftmotion/motion"
)

// PinMap names the chip-relative line offsets for each axis's STEP and
// DIR signal.
type PinMap struct {
	Step [motion.NumAxes]int
	Dir  [motion.NumAxes]int
}

// Sink drains motion.Command words and toggles the corresponding GPIO
// lines. It is meant to run as the sole consumer of a motion.Ring,
// called once per sub-tick from whatever drives the fixed-rate clock
// (see package clock).
type Sink struct {
	step [motion.NumAxes]*gpiocdev.Line
	dir  [motion.NumAxes]*gpiocdev.Line
}

var axisStepBit = [motion.NumAxes]motion.Command{
	motion.AxisX: motion.BitStepX, motion.AxisY: motion.BitStepY,
	motion.AxisZ: motion.BitStepZ, motion.AxisE: motion.BitStepE,
}
var axisDirBit = [motion.NumAxes]motion.Command{
	motion.AxisX: motion.BitDirX, motion.AxisY: motion.BitDirY,
	motion.AxisZ: motion.BitDirZ, motion.AxisE: motion.BitDirE,
}

// Open requests the STEP and DIR lines named in pins on chip (e.g.
// "gpiochip0") and returns a Sink ready to drain a Ring.
func Open(chip string, pins PinMap) (*Sink, error) {
	s := &Sink{}
	for a := motion.Axis(0); a < motion.NumAxes; a++ {
		stepLine, err := gpiocdev.RequestLine(chip, pins.Step[a],
			gpiocdev.AsOutput(0), gpiocdev.WithConsumer(fmt.Sprintf("ftmotion-step-%s", a)))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("gpio: request step line for axis %s: %w", a, err)
		}
		s.step[a] = stepLine

		dirLine, err := gpiocdev.RequestLine(chip, pins.Dir[a],
			gpiocdev.AsOutput(0), gpiocdev.WithConsumer(fmt.Sprintf("ftmotion-dir-%s", a)))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("gpio: request dir line for axis %s: %w", a, err)
		}
		s.dir[a] = dirLine
	}
	return s, nil
}

// Apply toggles every line named by cmd's step/dir bits: DIR lines are
// set to match the bit state unconditionally (cheap and idempotent so a
// missed edge self-corrects on the next command), STEP lines pulse only
// when their bit is set.
func (s *Sink) Apply(cmd motion.Command) error {
	for a := motion.Axis(0); a < motion.NumAxes; a++ {
		if s.dir[a] == nil {
			continue
		}
		dirVal := 0
		if cmd&axisDirBit[a] != 0 {
			dirVal = 1
		}
		if err := s.dir[a].SetValue(dirVal); err != nil {
			return fmt.Errorf("gpio: set dir for axis %s: %w", a, err)
		}
		if cmd&axisStepBit[a] != 0 {
			if err := s.step[a].SetValue(1); err != nil {
				return fmt.Errorf("gpio: set step for axis %s: %w", a, err)
			}
			if err := s.step[a].SetValue(0); err != nil {
				return fmt.Errorf("gpio: clear step for axis %s: %w", a, err)
			}
		}
	}
	return nil
}

// Drain pops and applies every command currently queued in r, up to max
// commands, returning the number applied.
func (s *Sink) Drain(r *motion.Ring, max int) (int, error) {
	n := 0
	for n < max {
		cmd, ok := r.Pop()
		if !ok {
			break
		}
		if err := s.Apply(cmd); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close releases every requested line.
func (s *Sink) Close() error {
	var firstErr error
	for a := range s.step {
		if s.step[a] != nil {
			if err := s.step[a].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if s.dir[a] != nil {
			if err := s.dir[a].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
