package modules

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/rack"
)

const (
	testRate  = 48000.0
	testBlock = 256
)

// render drives a module standalone (without an engine) for total samples
// in blocks of size block. prep runs before each Process call with the
// absolute index of the block's first sample and the block length, so the
// test can write input-port values. The named outputs are concatenated
// across blocks and returned.
func render(t *testing.T, m rack.Module, outputs []string, total, block int, prep func(base, n int)) map[string][]float64 {
	t.Helper()

	res := make(map[string][]float64, len(outputs))
	for _, name := range outputs {
		if m.Output(name) == nil {
			t.Fatalf("module %q has no output %q", m.Name(), name)
		}
		res[name] = make([]float64, 0, total)
	}

	for base := 0; base < total; base += block {
		n := block
		if total-base < n {
			n = total - base
		}

		if prep != nil {
			prep(base, n)
		}

		m.Process(n)

		for _, name := range outputs {
			p := m.Output(name)
			for i := 0; i < n; i++ {
				res[name] = append(res[name], p.Value(i))
			}
		}
	}

	return res
}

// pulseIndices returns the sample positions where sig crosses the gate
// threshold upward.
func pulseIndices(sig []float64) []int {
	var out []int
	prev := 0.0
	for i, v := range sig {
		if v >= gateThreshold && prev < gateThreshold {
			out = append(out, i)
		}
		prev = v
	}
	return out
}

// rmsOf returns the root-mean-square level of sig.
func rmsOf(sig []float64) float64 {
	if len(sig) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range sig {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(sig)))
}
