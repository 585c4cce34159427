package modules

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/internal/testutil"
	"github.com/cwbudde/algo-synth/rack"
)

// TestPatch_ClockSequencedVoice wires a complete voice through the engine:
// clock → sequencer → quantizer → oscillator → filter, with the sequencer
// gate driving an ADSR whose envelope feeds a VCA into the output stage.
// The patch must render finite, audible, bounded stereo audio.
func TestPatch_ClockSequencedVoice(t *testing.T) {
	opts := []core.ProcessorOption{core.WithSampleRate(testRate), core.WithBlockSize(testBlock)}

	eng := rack.New(opts...)

	clk := NewClock("clk", opts...)
	seq := NewSequencer("seq", 1, opts...)
	qnt := NewQuantizer("qnt", opts...)
	vco := NewOscillator("vco", opts...)
	vcf := NewSVF("vcf", opts...)
	env := NewADSR("env", opts...)
	vca := NewMultiply("vca", opts...)
	out := NewOutput("out", opts...)

	for _, m := range []rack.Module{clk, seq, qnt, vco, vcf, env, vca, out} {
		if err := eng.AddModule(m); err != nil {
			t.Fatalf("AddModule(%s): %v", m.Name(), err)
		}
	}

	clk.SetParameter("bpm", 240)
	seq.SetParameter("length", 4)
	vcf.SetParameter("cutoff", 2000)
	env.SetParameter("attack", 0.002)
	env.SetParameter("release", 0.05)

	for i := 0; i < 4; i++ {
		// A short arpeggio in semitones.
		if err := seq.SetStep(i, float64([]int{0, 4, 7, 12}[i]), 0.6, true); err != nil {
			t.Fatalf("SetStep: %v", err)
		}
	}

	connect := func(src rack.Module, op string, dst rack.Module, ip string) {
		t.Helper()
		if err := eng.Connect(src, op, dst, ip); err != nil {
			t.Fatalf("Connect %s.%s -> %s.%s: %v", src.Name(), op, dst.Name(), ip, err)
		}
	}

	connect(clk, "beat", seq, "clock")
	connect(seq, "cv", qnt, "in")
	// Semitone CV onto the exponential pitch input: 1/oct, so divide by 12
	// upstream in a real patch; here the attenuverter does it.
	att := NewAttenuverter("att", opts...)
	if err := eng.AddModule(att); err != nil {
		t.Fatalf("AddModule(att): %v", err)
	}
	att.SetParameter("gain", 1.0/12)
	connect(qnt, "out", att, "in")
	connect(att, "out", vco, "voct")
	connect(vco, "saw", vcf, "in")
	connect(seq, "gate", env, "gate")
	connect(vcf, "lowpass", vca, "a")
	connect(env, "env", vca, "b")
	connect(vca, "out", out, "in")

	// Order sanity: the clock must run before the sequencer, the VCA after
	// both the filter and the envelope.
	pos := map[rack.Module]int{}
	for i, m := range eng.Order() {
		pos[m] = i
	}
	if pos[clk] > pos[seq] || pos[vcf] > pos[vca] || pos[env] > pos[vca] {
		t.Fatal("evaluation order violates dependencies")
	}

	const blocks = 400 // just over two seconds

	interleaved := make([]float64, 2*testBlock)
	var sumSquares float64
	var frames int

	for b := 0; b < blocks; b++ {
		if err := eng.Process(testBlock); err != nil {
			t.Fatalf("block %d: %v", b, err)
		}

		if err := out.CopyToInterleavedBuffer(interleaved, testBlock); err != nil {
			t.Fatalf("block %d: %v", b, err)
		}

		testutil.RequireFinite(t, interleaved)
		for _, v := range interleaved {
			if math.Abs(v) > 1 {
				t.Fatalf("block %d: sample %v exceeds output ceiling", b, v)
			}
			sumSquares += v * v
			frames++
		}
	}

	if rms := math.Sqrt(sumSquares / float64(frames)); rms < 1e-3 {
		t.Errorf("patch rendered near-silence, rms = %v", rms)
	}

	// Reset returns the whole patch to silence without touching topology.
	eng.Reset()
	if err := eng.Process(testBlock); err != nil {
		t.Fatalf("post-reset process: %v", err)
	}
	if l, _ := out.Peak(); l > 1e-9 {
		// The clock restarts from phase 0, so the first beat (and any
		// audio) is at least one beat period away.
		t.Errorf("peak right after reset = %v, want silence", l)
	}
}
