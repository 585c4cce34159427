package modules

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

const mixerChannels = 4

// Mixer sums four audio channels into a stereo pair. Each channel has
// level, equal-power pan, and mute parameters named level1..level4,
// pan1..pan4, mute1..mute4. The stereo bus passes through a cubic soft
// clip so overdriven sums stay bounded.
type Mixer struct {
	rack.Base

	ins [mixerChannels]*rack.Port

	left  *rack.Port
	right *rack.Port

	pLevel [mixerChannels]int
	pPan   [mixerChannels]int
	pMute  [mixerChannels]int

	busL []float64
	busR []float64
	tmp  []float64
}

// NewMixer creates a four-channel stereo mixer.
func NewMixer(name string, opts ...core.ProcessorOption) *Mixer {
	m := &Mixer{Base: rack.NewBase(name, opts...)}

	for ch := 0; ch < mixerChannels; ch++ {
		m.ins[ch] = m.AddInput(fmt.Sprintf("in%d", ch+1), rack.Audio)

		m.pLevel[ch] = m.RegisterParameter(fmt.Sprintf("level%d", ch+1), 0.8, 0, 1)
		m.pPan[ch] = m.RegisterParameter(fmt.Sprintf("pan%d", ch+1), 0, -1, 1)
		m.pMute[ch] = m.RegisterParameter(fmt.Sprintf("mute%d", ch+1), 0, 0, 1)
	}

	m.left = m.AddOutput("left", rack.Audio)
	m.right = m.AddOutput("right", rack.Audio)

	m.busL = make([]float64, m.BlockSize())
	m.busR = make([]float64, m.BlockSize())
	m.tmp = make([]float64, m.BlockSize())

	return m
}

// Process sums one block into the stereo outputs.
func (m *Mixer) Process(n int) {
	busL := m.busL[:n]
	busR := m.busR[:n]
	tmp := m.tmp[:n]

	core.Zero(busL)
	core.Zero(busR)

	for ch := 0; ch < mixerChannels; ch++ {
		if m.Param(m.pMute[ch]) >= 0.5 {
			continue
		}

		level := m.Param(m.pLevel[ch])
		if level == 0 {
			continue
		}

		gl, gr := panGains(m.Param(m.pPan[ch]))
		src := m.ins[ch].Block()[:n]

		vecmath.ScaleBlock(tmp, src, level*gl)
		vecmath.AddBlockInPlace(busL, tmp)

		vecmath.ScaleBlock(tmp, src, level*gr)
		vecmath.AddBlockInPlace(busR, tmp)
	}

	for i := 0; i < n; i++ {
		m.left.SetValue(i, core.SoftClip(busL[i]))
		m.right.SetValue(i, core.SoftClip(busR[i]))
	}
}

// panGains maps pan in [-1, 1] to equal-power left and right gains.
func panGains(pan float64) (left, right float64) {
	a := (pan + 1) * math.Pi / 4
	return math.Cos(a), math.Sin(a)
}

// Reset clears the bus scratch and all port buffers.
func (m *Mixer) Reset() {
	m.Base.Reset()
	core.Zero(m.busL)
	core.Zero(m.busR)
}
