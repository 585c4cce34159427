package modules

// gateThreshold is the level above which a gate or trigger input counts as
// high.
const gateThreshold = 0.5

// edgeDetector tracks one signal across samples and blocks to classify
// threshold crossings.
type edgeDetector struct {
	prev float64
}

// step consumes the next sample and reports threshold crossings.
func (d *edgeDetector) step(v float64) (rising, falling bool) {
	rising = d.prev < gateThreshold && v >= gateThreshold
	falling = d.prev >= gateThreshold && v < gateThreshold
	d.prev = v
	return rising, falling
}

// rising consumes the next sample and reports a rising edge.
func (d *edgeDetector) rising(v float64) bool {
	r, _ := d.step(v)
	return r
}

func (d *edgeDetector) reset() {
	d.prev = 0
}
