// Package fallback is the per-sample threshold check for the two
// latency-critical classes. It keeps no state; the caller supplies the
// previous magnitude.
package fallback

import "math"

type Verdict uint8

const (
	None Verdict = iota
	Brake
	Crash
)

func (v Verdict) String() string {
	switch v {
	case Brake:
		return "brake"
	case Crash:
		return "crash"
	default:
		return "none"
	}
}

// Thresholds are hand-tuned, unscaled limits.
type Thresholds struct {
	// CrashG fires crash when accel magnitude exceeds it (g).
	CrashG float64
	// CrashJerk fires crash when jerk exceeds it (g/s).
	CrashJerk float64
	// BrakeJerk is the lower edge of the brake jerk band (g/s). The upper
	// edge is CrashJerk.
	BrakeJerk float64
	// BrakeMaxG caps accel magnitude for a brake (g).
	BrakeMaxG float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{CrashG: 3.0, CrashJerk: 40, BrakeJerk: 14, BrakeMaxG: 2.2}
}

// Jerk approximates |Δaccel_mag| per second between consecutive samples.
func Jerk(mag, prevMag, sampleRateHz float64) float64 {
	return math.Abs(mag-prevMag) * sampleRateHz
}

// Check evaluates crash first; a crash suppresses brake for the sample.
func (t Thresholds) Check(mag, jerk float64) Verdict {
	if mag > t.CrashG || jerk > t.CrashJerk {
		return Crash
	}
	if jerk > t.BrakeJerk && jerk <= t.CrashJerk && mag < t.BrakeMaxG {
		return Brake
	}
	return None
}

// BrakeConfidence grows with jerk above the brake band floor.
func BrakeConfidence(jerk float64) float64 {
	return ramp(jerk, 14, 30)
}

// CrashConfidence takes the stronger of the jerk and impact excess.
func CrashConfidence(jerk, mag float64) float64 {
	return math.Max(ramp(jerk, 40, 90), ramp(mag, 3, 5))
}

// ramp maps x in [lo,hi] onto [0.2,1.0], clamped.
func ramp(x, lo, hi float64) float64 {
	t := (x - lo) / (hi - lo)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return 0.2 + 0.8*t
}
