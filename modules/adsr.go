package modules

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/rack"
)

// Stage identifies the envelope state machine position.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

const (
	// attackRatio and decayRatio are the asymptote overshoot ratios of the
	// exponential curves: the attack aims slightly past 1, decay and
	// release slightly past their resting level, so each stage crosses its
	// threshold in finite time.
	attackRatio = 0.3
	decayRatio  = 0.0001

	// releaseFloor is the level below which the release stage ends.
	releaseFloor = 1e-4

	minStageTime = 0.0005
)

// ADSR is a five-stage envelope generator. A rising gate starts the
// attack, a falling gate enters release from any stage, and a retrigger
// pulse while the gate is held re-enters attack from the current level.
// Each stage transition emits a single-sample pulse on the eos output.
type ADSR struct {
	rack.Base

	gate   *rack.Port
	retrig *rack.Port

	env *rack.Port
	eos *rack.Port

	pAttack  int
	pDecay   int
	pSustain int
	pRelease int
	pExpo    int

	stage Stage
	value float64

	gateEdge   edgeDetector
	retrigEdge edgeDetector

	releaseRate float64 // linear mode, captured at release entry
}

// NewADSR creates an envelope generator.
func NewADSR(name string, opts ...core.ProcessorOption) *ADSR {
	e := &ADSR{Base: rack.NewBase(name, opts...)}

	e.gate = e.AddInput("gate", rack.Gate)
	e.retrig = e.AddInput("retrig", rack.Trigger)

	e.env = e.AddOutput("env", rack.Control)
	e.eos = e.AddOutput("eos", rack.Trigger)

	e.pAttack = e.RegisterParameter("attack", 0.01, minStageTime, 10)
	e.pDecay = e.RegisterParameter("decay", 0.1, minStageTime, 10)
	e.pSustain = e.RegisterParameter("sustain", 0.7, 0, 1)
	e.pRelease = e.RegisterParameter("release", 0.3, minStageTime, 10)
	e.pExpo = e.RegisterParameter("exponential", 1, 0, 1)

	return e
}

// Stage returns the current envelope stage.
func (e *ADSR) Stage() Stage { return e.stage }

// Value returns the current envelope level in [0, 1].
func (e *ADSR) Value() float64 { return e.value }

// expoCoef is the per-sample coefficient of an asymptotic stage: the curve
// covers its range within `time` seconds when aiming ratio past the target.
func expoCoef(time, ratio, sampleRate float64) float64 {
	return 1 - math.Exp(-math.Log((1+ratio)/ratio)/(time*sampleRate))
}

// Process renders one block of envelope values.
func (e *ADSR) Process(n int) {
	sr := e.SampleRate()

	attack := e.Param(e.pAttack)
	decay := e.Param(e.pDecay)
	sustain := e.Param(e.pSustain)
	release := e.Param(e.pRelease)
	expo := e.Param(e.pExpo) >= 0.5

	attackCoef := expoCoef(attack, attackRatio, sr)
	decayCoef := expoCoef(decay, decayRatio, sr)
	releaseCoef := expoCoef(release, decayRatio, sr)

	attackInc := 1 / (attack * sr)
	decayInc := (1 - sustain) / (decay * sr)

	for i := 0; i < n; i++ {
		gateRise, gateFall := e.gateEdge.step(e.gate.Value(i))
		retrigRise := e.retrigEdge.rising(e.retrig.Value(i))

		if gateFall && e.stage != StageIdle {
			e.enterRelease(release, sr)
		}

		if gateRise || (retrigRise && e.gate.Value(i) >= gateThreshold) {
			e.stage = StageAttack
		}

		pulse := 0.0

		switch e.stage {
		case StageAttack:
			if expo {
				e.value += attackCoef * ((1 + attackRatio) - e.value)
			} else {
				e.value += attackInc
			}

			if e.value >= 1 {
				e.value = 1
				e.stage = StageDecay
				pulse = 1
			}

		case StageDecay:
			if expo {
				e.value += decayCoef * ((sustain - decayRatio) - e.value)
			} else {
				e.value -= decayInc
			}

			if e.value <= sustain {
				e.value = sustain
				e.stage = StageSustain
				pulse = 1
			}

		case StageSustain:
			e.value = sustain

		case StageRelease:
			if expo {
				e.value += releaseCoef * (-decayRatio - e.value)
			} else {
				e.value -= e.releaseRate
			}

			if e.value <= releaseFloor {
				e.value = 0
				e.stage = StageIdle
				pulse = 1
			}

		case StageIdle:
			e.value = 0
		}

		e.value = core.Clamp(e.value, 0, 1)
		e.env.SetValue(i, e.value)
		e.eos.SetValue(i, pulse)
	}
}

func (e *ADSR) enterRelease(release, sampleRate float64) {
	e.stage = StageRelease
	e.releaseRate = e.value / (release * sampleRate)
	if e.releaseRate <= 0 {
		e.releaseRate = releaseFloor
	}
}

// Reset returns the envelope to idle and clears all port buffers.
func (e *ADSR) Reset() {
	e.Base.Reset()
	e.stage = StageIdle
	e.value = 0
	e.releaseRate = 0
	e.gateEdge.reset()
	e.retrigEdge.reset()
}
