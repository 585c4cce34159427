package modules

import "github.com/meko-christian/algo-approx"

// ln2 is the natural logarithm of 2, used for log base conversions.
const ln2 = 0.693147180559945309417232121458

// pow2 computes 2^x through algo-approx's fast exponential. Octave and
// cent scaling runs once per sample in the oscillator and filter hot
// loops, where the approximation error (well below a cent) is inaudible.
func pow2(x float64) float64 {
	return approx.FastExp(x * ln2)
}

// tanhApprox is a polynomial tanh for per-stage saturation in hot loops.
func tanhApprox(x float64) float64 {
	if x > 3 {
		return 1
	}

	if x < -3 {
		return -1
	}

	x2 := x * x

	v := x * (27 + x2) / (27 + 9*x2)
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
