package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestController(blocks []Block) *Controller {
	src := NewSliceSource(blocks, StepsToMM{AxisX: 0.01, AxisY: 0.01, AxisZ: 0.01, AxisE: 0.01})
	shaper := NewShaper(4096)
	cfg := NewControlAPI(DefaultConfig(1000), shaper, noopQuiescer{}, testLogger{})
	return NewController(src, cfg, shaper, 256, Options{Rounding: RoundNearest}, testLogger{})
}

func TestController_DrainsToIdleAndSetsDone(t *testing.T) {
	blocks := []Block{*straightBlock(1000, 10, 0, 0, 50, 500)}
	c := newTestController(blocks)

	for i := 0; i < 10000 && !c.Done(); i++ {
		c.Tick()
		// Drain the ring as a consumer would, so Busy() can settle.
		for {
			if _, ok := c.Ring().Pop(); !ok {
				break
			}
		}
	}
	assert.True(t, c.Done(), "controller never reached Done after consuming its only block and its runout padding")
}

func TestController_AbortResetsToIdle(t *testing.T) {
	blocks := []Block{*straightBlock(1000, 10, 0, 0, 50, 500)}
	c := newTestController(blocks)

	c.Tick()
	assert.True(t, c.Busy())

	c.Abort()
	c.Tick()

	assert.False(t, c.Busy())
	assert.False(t, c.Done())
	assert.Equal(t, 0, c.Ring().Items())
}

func TestController_EmptySourceGoesStraightToRunout(t *testing.T) {
	c := newTestController(nil)

	for i := 0; i < 10000 && !c.Done(); i++ {
		c.Tick()
		for {
			if _, ok := c.Ring().Pop(); !ok {
				break
			}
		}
	}
	assert.True(t, c.Done())
}

func TestController_SkipsZeroLengthBlockWithoutStalling(t *testing.T) {
	blocks := []Block{
		{Millimeters: 0, StepEventCount: 0},
		*straightBlock(500, 5, 0, 0, 50, 500),
	}
	c := newTestController(blocks)

	for i := 0; i < 10000 && !c.Done(); i++ {
		c.Tick()
		for {
			if _, ok := c.Ring().Pop(); !ok {
				break
			}
		}
	}
	assert.True(t, c.Done())
}
