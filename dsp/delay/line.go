// Package delay provides a circular delay line primitive used by the
// modulation and echo modules.
package delay

import (
	"fmt"
	"math"
)

// Line is a circular delay line with a fixed maximum length.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay: size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample and advances the write position.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples. A delay of 1 returns the most
// recently written sample; the maximum reach is the line length, which is
// the oldest stored sample (a delay of 0 aliases it, since that slot is
// what the next Write overwrites). Out-of-range delays clamp.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if size == 0 {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	if delay > size {
		delay = size
	}
	readPos := (d.writePos - delay + size) % size
	return d.buffer[readPos]
}

// ReadNearest reads a variable delay rounded to the nearest integer tap.
// The tap is intentionally not interpolated.
func (d *Line) ReadNearest(delay float64) float64 {
	if math.IsNaN(delay) || delay < 0 {
		delay = 0
	}
	return d.Read(int(math.Round(delay)))
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
