// Package drift implements the PI-controlled audio/video desync estimate
// the synchronizer uses to steer its audio resampler.
package drift

import "math"

// Estimator maintains a PI-controlled estimate of audio-vs-video desync,
// in seconds, and the resample-rate perturbation that should absorb it.
//
// It is fed exclusively from audio ingest timing (arrival time vs.
// expected arrival time at the configured sample rate, see the
// synchronizer package's ReadAudioSamples); the emit worker only reads
// the resulting ratio back out. Feeding a second, independent
// measurement from the output side (as an emitted-video-seconds vs.
// emitted-audio-seconds comparison) would double-integrate the same
// underlying clock skew into desyncI and was deliberately not done here —
// see DESIGN.md.
type Estimator struct {
	correctionP float64
	correctionI float64
	threshold   float64

	desync  float64
	desyncI float64
	warned  bool
}

// New returns an Estimator with the given PI gains and an absolute desync
// threshold (seconds) beyond which the estimate is clamped and the
// caller's warn signal fires once.
func New(correctionP, correctionI, threshold float64) *Estimator {
	return &Estimator{correctionP: correctionP, correctionI: correctionI, threshold: threshold}
}

// Update feeds a new instantaneous desync measurement, in seconds
// (positive meaning audio arrived later than expected), and the elapsed
// time, in seconds, since the previous measurement. It returns the
// updated estimate and whether the desync excursion warning should fire;
// the warning fires at most once per Estimator lifetime (i.e. per
// segment, since Reset clears it).
func (e *Estimator) Update(measured, dt float64) (desync float64, warn bool) {
	if dt < 0 {
		dt = 0
	}
	e.desyncI += e.correctionI * measured * dt
	e.desync = e.desyncI + e.correctionP*measured

	if e.desync > e.threshold {
		e.desync = e.threshold
	} else if e.desync < -e.threshold {
		e.desync = -e.threshold
	}

	if !e.warned && math.Abs(e.desync) >= e.threshold {
		e.warned = true
		warn = true
	}
	return e.desync, warn
}

// Desync returns the current desync estimate, in seconds, without
// updating it.
func (e *Estimator) Desync() float64 { return e.desync }

// Ratio returns the resampler target-rate perturbation: a 1 ms/s clock
// skew produces a 1 ms/s rate adjustment, in the opposite direction of
// the drift, so callers compute the resampler's target rate as
// requiredRate / (1 + Ratio()).
func (e *Estimator) Ratio() float64 { return e.desync }

// Reset zeroes the PI state and the warning latch; called on every
// segment boundary.
func (e *Estimator) Reset() {
	e.desync = 0
	e.desyncI = 0
	e.warned = false
}
