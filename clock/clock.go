// Package clock provides a precise, fixed-rate tick source for driving
// package motion's Controller at a fixed rate paced by its configured
// sample rate (one tick per audio buffer), using a PortAudio output stream's callback as the timing source
// rather than a Go ticker (whose scheduling jitter is much larger than
// one sample period at typical FTM rates).
package clock

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Ticker drives a callback at a fixed rate by opening a silent PortAudio
// output stream at a given sample rate and firing once per buffer. The audio
// hardware's own clock, not the OS scheduler, paces the ticks.
type Ticker struct {
	stream *portaudio.Stream
	onTick func()
}

// Open starts a Ticker at sampleRate Hz, calling onTick once per
// framesPerBuffer samples consumed. A larger framesPerBuffer reduces
// call overhead at the cost of latency between tick and the hardware
// clock edge it represents.
func Open(sampleRate float64, framesPerBuffer int, onTick func()) (*Ticker, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("clock: portaudio init: %w", err)
	}

	t := &Ticker{onTick: onTick}

	stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, framesPerBuffer, t.callback)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("clock: open stream: %w", err)
	}
	t.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("clock: start stream: %w", err)
	}

	return t, nil
}

// callback is invoked by PortAudio on its own realtime thread; it must
// not block. out is silence (the ticker never emits audible output) —
// it exists only to own a hardware-clocked buffer completion event.
func (t *Ticker) callback(out []float32) {
	for i := range out {
		out[i] = 0
	}
	t.onTick()
}

// Close stops the stream and releases PortAudio.
func (t *Ticker) Close() error {
	if t.stream == nil {
		return nil
	}
	if err := t.stream.Stop(); err != nil {
		return fmt.Errorf("clock: stop stream: %w", err)
	}
	if err := t.stream.Close(); err != nil {
		return fmt.Errorf("clock: close stream: %w", err)
	}
	return portaudio.Terminate()
}
