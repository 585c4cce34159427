// Package modules is the library of synthesis modules that plug into the
// rack engine: oscillator, filters, envelope, clock and sequencer, noise
// sources, delay, sample-and-hold, slew limiter, logic, quantizer, mixer
// and the stereo output stage.
//
// Every module embeds rack.Base, registers its ports and parameters at
// construction time, and keeps Process allocation-free. Gate and trigger
// inputs are thresholded at 0.5; trigger outputs emit single-sample pulses.
package modules
