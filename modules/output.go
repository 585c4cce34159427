package modules

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Output is the rack's terminal module: it pans a mono input across a
// stereo pair, applies the master level, soft-limits, and publishes peak
// and RMS meters that are safe to read from another goroutine while the
// engine is processing.
type Output struct {
	rack.Base

	in *rack.Port

	left  *rack.Port
	right *rack.Port

	pLevel int
	pPan   int

	peakL atomic.Uint64
	peakR atomic.Uint64
	rmsL  atomic.Uint64
	rmsR  atomic.Uint64
}

// NewOutput creates a stereo output stage.
func NewOutput(name string, opts ...core.ProcessorOption) *Output {
	o := &Output{Base: rack.NewBase(name, opts...)}

	o.in = o.AddInput("in", rack.Audio)

	o.left = o.AddOutput("left", rack.Audio)
	o.right = o.AddOutput("right", rack.Audio)

	o.pLevel = o.RegisterParameter("level", 1, 0, 2)
	o.pPan = o.RegisterParameter("pan", 0, -1, 1)

	return o
}

// Process renders one block of the limited stereo signal and refreshes
// the meters.
func (o *Output) Process(n int) {
	level := o.Param(o.pLevel)
	gl, gr := panGains(o.Param(o.pPan))

	src := o.in.Block()[:n]
	left := o.left.Block()[:n]
	right := o.right.Block()[:n]

	vecmath.ScaleBlock(left, src, level*gl)
	vecmath.ScaleBlock(right, src, level*gr)

	peakL, rmsL := limitAndMeter(left)
	peakR, rmsR := limitAndMeter(right)

	o.left.SyncScalar()
	o.right.SyncScalar()

	o.peakL.Store(math.Float64bits(peakL))
	o.peakR.Store(math.Float64bits(peakR))
	o.rmsL.Store(math.Float64bits(rmsL))
	o.rmsR.Store(math.Float64bits(rmsR))
}

// limitAndMeter soft-limits buf in place and returns its post-limit peak
// and RMS.
func limitAndMeter(buf []float64) (peak, rms float64) {
	sum := 0.0

	for i, v := range buf {
		v = core.SoftClip(v)
		buf[i] = v

		if a := math.Abs(v); a > peak {
			peak = a
		}
		sum += v * v
	}

	if len(buf) > 0 {
		rms = math.Sqrt(sum / float64(len(buf)))
	}

	return peak, rms
}

// Peak returns the most recent block's peak levels for both channels.
func (o *Output) Peak() (left, right float64) {
	return math.Float64frombits(o.peakL.Load()), math.Float64frombits(o.peakR.Load())
}

// RMS returns the most recent block's RMS levels for both channels.
func (o *Output) RMS() (left, right float64) {
	return math.Float64frombits(o.rmsL.Load()), math.Float64frombits(o.rmsR.Load())
}

// CopyToInterleavedBuffer copies sampleCount frames of the last processed
// block into dst as interleaved left/right pairs.
func (o *Output) CopyToInterleavedBuffer(dst []float64, sampleCount int) error {
	if sampleCount < 0 || sampleCount > o.BlockSize() {
		return fmt.Errorf("modules: output %q: sample count %d out of range [0, %d]",
			o.Name(), sampleCount, o.BlockSize())
	}
	if len(dst) < 2*sampleCount {
		return fmt.Errorf("modules: output %q: destination holds %d samples, need %d",
			o.Name(), len(dst), 2*sampleCount)
	}

	for i := 0; i < sampleCount; i++ {
		dst[2*i] = o.left.Value(i)
		dst[2*i+1] = o.right.Value(i)
	}

	return nil
}

// Reset clears the meters and all port buffers.
func (o *Output) Reset() {
	o.Base.Reset()
	o.peakL.Store(0)
	o.peakR.Store(0)
	o.rmsL.Store(0)
	o.rmsR.Store(0)
}
