package modules

import (
	"testing"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/internal/testutil"
)

const seqClockPeriod = 200

func newTestSequencer(t *testing.T) *Sequencer {
	t.Helper()
	return NewSequencer("seq", 1, core.WithSampleRate(testRate), core.WithBlockSize(testBlock))
}

// clockSequencer feeds the sequencer one clock edge per block and returns
// the CV value latched after each edge.
func clockSequencer(t *testing.T, s *Sequencer, edges int) []float64 {
	t.Helper()

	clock := s.Input("clock")
	cvs := make([]float64, 0, edges)

	for e := 0; e < edges; e++ {
		clock.Clear()
		clock.SetValue(0, 1)
		s.Process(testBlock)
		cvs = append(cvs, s.Output("cv").Value(testBlock-1))
	}

	return cvs
}

// programSteps assigns CV value float64(i) to each of the first count
// steps so tests can read the visited step index off the cv output.
func programSteps(t *testing.T, s *Sequencer, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		if err := s.SetStep(i, float64(i), 0.5, true); err != nil {
			t.Fatalf("SetStep(%d): %v", i, err)
		}
	}
}

// TestSequencer_Forward_VisitsStepsInOrder drives 16 clock edges through
// an 8-step forward pattern and expects 0..7 twice.
func TestSequencer_Forward_VisitsStepsInOrder(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 8)
	s.SetParameter("mode", SeqForward)
	programSteps(t, s, 8)

	cvs := clockSequencer(t, s, 16)

	for e, cv := range cvs {
		if want := float64(e % 8); cv != want {
			t.Errorf("edge %d: step cv = %v, want %v", e, cv, want)
		}
	}
}

// TestSequencer_Backward_VisitsStepsInReverse expects 0,7,6,...: the first
// edge starts at step 0, then the pattern walks down.
func TestSequencer_Backward_VisitsStepsInReverse(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 8)
	s.SetParameter("mode", SeqBackward)
	programSteps(t, s, 8)

	cvs := clockSequencer(t, s, 9)

	want := []float64{0, 7, 6, 5, 4, 3, 2, 1, 0}
	for e := range want {
		if cvs[e] != want[e] {
			t.Errorf("edge %d: step cv = %v, want %v", e, cvs[e], want[e])
		}
	}
}

// TestSequencer_PingPong_BouncesAtEnds verifies the up-down traversal
// touches the end steps once per cycle.
func TestSequencer_PingPong_BouncesAtEnds(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 4)
	s.SetParameter("mode", SeqPingPong)
	programSteps(t, s, 4)

	cvs := clockSequencer(t, s, 10)

	want := []float64{0, 1, 2, 3, 2, 1, 0, 1, 2, 3}
	for e := range want {
		if cvs[e] != want[e] {
			t.Errorf("edge %d: step cv = %v, want %v", e, cvs[e], want[e])
		}
	}
}

// TestSequencer_Random_StaysWithinLengthAndEnabled verifies the random
// mode only ever lands on enabled steps inside the pattern.
func TestSequencer_Random_StaysWithinLengthAndEnabled(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 6)
	s.SetParameter("mode", SeqRandom)
	programSteps(t, s, 6)
	if err := s.SetStep(3, 3, 0.5, false); err != nil {
		t.Fatalf("SetStep: %v", err)
	}

	cvs := clockSequencer(t, s, 64)

	for e, cv := range cvs {
		if cv < 0 || cv > 5 {
			t.Errorf("edge %d: cv %v outside pattern", e, cv)
		}
		if cv == 3 {
			t.Errorf("edge %d: landed on disabled step 3", e)
		}
	}
}

// TestSequencer_SkipsDisabledSteps verifies a disabled step is passed over
// in forward mode.
func TestSequencer_SkipsDisabledSteps(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 4)
	s.SetParameter("mode", SeqForward)
	programSteps(t, s, 4)
	if err := s.SetStep(2, 2, 0.5, false); err != nil {
		t.Fatalf("SetStep: %v", err)
	}

	cvs := clockSequencer(t, s, 6)

	want := []float64{0, 1, 3, 0, 1, 3}
	for e := range want {
		if cvs[e] != want[e] {
			t.Errorf("edge %d: step cv = %v, want %v", e, cvs[e], want[e])
		}
	}
}

// TestSequencer_AllStepsDisabled_DoesNotHang verifies the bounded retry:
// the sequencer must survive a pattern with nothing enabled.
func TestSequencer_AllStepsDisabled_DoesNotHang(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 8)

	for i := 0; i < sequencerSteps; i++ {
		if err := s.SetStep(i, float64(i), 0.5, false); err != nil {
			t.Fatalf("SetStep(%d): %v", i, err)
		}
	}

	cvs := clockSequencer(t, s, 8)

	for e, cv := range cvs {
		if cv != 0 {
			t.Errorf("edge %d: cv = %v, want 0 (nothing latched)", e, cv)
		}
	}
}

// TestSequencer_GateLength_TracksClockPeriod verifies the gate stays high
// for the programmed fraction of the measured clock period.
func TestSequencer_GateLength_TracksClockPeriod(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 4)
	s.SetParameter("mode", SeqForward)

	for i := 0; i < 4; i++ {
		if err := s.SetStep(i, 0, 0.25, true); err != nil {
			t.Fatalf("SetStep: %v", err)
		}
	}

	clock := s.Input("clock")
	const edges = 8

	train := testutil.PulseTrain(seqClockPeriod, edges*seqClockPeriod)
	gate := render(t, s, []string{"gate"}, edges*seqClockPeriod, testBlock, func(base, n int) {
		for i := 0; i < n; i++ {
			clock.SetValue(i, train[base+i])
		}
	})["gate"]

	// Measure the high span following a late edge, where the period has
	// been measured from real spacing (200 samples → gate 50 samples).
	start := 5 * seqClockPeriod
	high := 0
	for i := start; i < start+seqClockPeriod; i++ {
		if gate[i] >= gateThreshold {
			high++
		}
	}

	if want := seqClockPeriod / 4; high != want {
		t.Errorf("gate high for %d samples, want %d", high, want)
	}
}

// TestSequencer_EOC_PulsesOnWrap verifies the end-of-cycle trigger fires
// exactly when the forward pattern wraps to step 0.
func TestSequencer_EOC_PulsesOnWrap(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 4)
	s.SetParameter("mode", SeqForward)
	programSteps(t, s, 4)

	clock := s.Input("clock")
	const edges = 12

	train := testutil.PulseTrain(seqClockPeriod, edges*seqClockPeriod)
	eoc := render(t, s, []string{"eoc"}, edges*seqClockPeriod, testBlock, func(base, n int) {
		for i := 0; i < n; i++ {
			clock.SetValue(i, train[base+i])
		}
	})["eoc"]

	pulses := pulseIndices(eoc)

	// Edges land at 0,200,...; the first edge starts the pattern at step 0
	// without wrapping, then every 4th edge after it wraps: edges 4 and 8.
	want := []int{4 * seqClockPeriod, 8 * seqClockPeriod}
	if len(pulses) != len(want) {
		t.Fatalf("eoc pulses at %v, want %v", pulses, want)
	}
	for i := range want {
		if pulses[i] != want[i] {
			t.Errorf("eoc pulse %d at sample %d, want %d", i, pulses[i], want[i])
		}
	}
}

// TestSequencer_ResetInput_RestartsPattern verifies a reset pulse rewinds
// to step 0 on the next clock edge.
func TestSequencer_ResetInput_RestartsPattern(t *testing.T) {
	s := newTestSequencer(t)
	s.SetParameter("length", 8)
	s.SetParameter("mode", SeqForward)
	programSteps(t, s, 8)

	clock := s.Input("clock")
	reset := s.Input("reset")

	// Three edges: steps 0, 1, 2.
	for e := 0; e < 3; e++ {
		clock.Clear()
		clock.SetValue(0, 1)
		s.Process(testBlock)
	}
	if s.Pos() != 2 {
		t.Fatalf("pos = %d, want 2", s.Pos())
	}

	reset.SetValue(0, 1)
	clock.Clear()
	s.Process(testBlock)
	reset.Clear()

	clock.SetValue(0, 1)
	s.Process(testBlock)

	if s.Pos() != 0 {
		t.Errorf("pos after reset+clock = %d, want 0", s.Pos())
	}
	if cv := s.Output("cv").Value(testBlock - 1); cv != 0 {
		t.Errorf("cv after reset+clock = %v, want 0", cv)
	}
}
