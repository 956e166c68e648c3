package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRing_PushPopFIFO(t *testing.T) {
	r := NewRing(8)
	for i := Command(0); i < 5; i++ {
		ok := r.Push(i)
		assert.True(t, ok)
	}
	for i := Command(0); i < 5; i++ {
		cmd, ok := r.Pop()
		assert.True(t, ok)
		assert.Equal(t, i, cmd)
	}
	_, ok := r.Pop()
	assert.False(t, ok, "ring should be empty after draining everything pushed")
}

func TestRing_NeverExceedsCapacityMinusOne(t *testing.T) {
	r := NewRing(4)
	pushed := 0
	for r.Push(Command(pushed)) {
		pushed++
	}
	assert.Equal(t, r.Size()-1, pushed, "producer must never be able to fill the last slot")
	assert.Equal(t, 0, r.Free())
}

func TestRing_ResetClearsItemsAndIndices(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 3; i++ {
		r.Push(Command(i))
	}
	r.Reset()
	assert.Equal(t, 0, r.Items())
	assert.Equal(t, r.Size()-1, r.Free())
	_, ok := r.Pop()
	assert.False(t, ok)
}

// TestRing_ItemsInvariant is the property-based form of spec.md §8
// invariant 4: items never exceeds CMD_BUF-1, and a sequence of
// pushes/pops interleaved never desynchronizes producer and consumer.
func TestRing_ItemsInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := 1 << rapid.IntRange(1, 6).Draw(t, "log2size")
		r := NewRing(size)

		var pushedNotPopped []Command
		var next Command

		ops := rapid.SliceOfN(rapid.IntRange(0, 1), 0, 200).Draw(t, "ops")
		for _, op := range ops {
			assert.LessOrEqualf(t, r.Items(), r.Size()-1, "ring overflowed its reserved slot")
			if op == 0 {
				if r.Push(next) {
					pushedNotPopped = append(pushedNotPopped, next)
					next++
				}
			} else {
				cmd, ok := r.Pop()
				if len(pushedNotPopped) == 0 {
					assert.False(t, ok)
					continue
				}
				assert.True(t, ok)
				assert.Equal(t, pushedNotPopped[0], cmd)
				pushedNotPopped = pushedNotPopped[1:]
			}
		}
	})
}

func TestCommand_IndexRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.IntRange(0, int(indexMask)).Draw(t, "idx")
		cmd := withIndex(BitSyncPos, idx)
		assert.Equal(t, idx, cmd.Index())
		assert.NotZero(t, cmd&BitSyncPos)
	})
}
