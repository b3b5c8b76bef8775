package classify

import (
	"math"

	"luma/internal/features"
)

// NormalConfidence is reported when no event band matches.
const NormalConfidence = 0.8

// Threshold classifies with fixed bands over five raw features. Rules are
// checked in priority order Crash, Brake, Turn, Bump; the first match wins.
type Threshold struct{}

func (Threshold) Classify(v *features.Vector) Classification {
	c := thresholdClass(v)
	return Classification{Class: c, Confidence: thresholdConfidence(v, c)}
}

func thresholdClass(v *features.Vector) EventClass {
	azStd := v[features.AccelZStd]
	amMax := v[features.AccelMagMax]
	gmMax := v[features.GyroMagMax]
	jMean := v[features.JerkMean]
	jMax := v[features.JerkMax]

	// Crash needs impact, jerk and rotation together so hard braking stays out.
	if (amMax > 3.2 && jMax > 55 && gmMax > 220) ||
		(amMax > 3.6 && jMax > 45 && gmMax > 180) {
		return Crash
	}

	if jMean > 6 && jMean < 35 &&
		jMax > 14 && jMax < 55 &&
		gmMax < 140 &&
		amMax < 2.6 &&
		azStd < 0.9 {
		return Brake
	}

	if gmMax > 200 && amMax < 2.2 {
		return Turn
	}

	if amMax > 2.2 && amMax < 3.2 && jMax > 18 && jMax < 70 {
		return Bump
	}

	return Normal
}

func thresholdConfidence(v *features.Vector, c EventClass) float64 {
	am := v[features.AccelMagMax]
	jm := v[features.JerkMean]
	jx := v[features.JerkMax]
	gm := v[features.GyroMagMax]

	switch c {
	case Crash:
		s1 := (am - 3.0) / 1.8
		s2 := (jx - 45) / 60
		s3 := (gm - 180) / 260
		return clamp(math.Max(s1, math.Max(s2, s3)), 0.2, 1.0)
	case Brake:
		s1 := (jm - 6) / 30
		s2 := (jx - 14) / 40
		return clamp(0.5*s1+0.5*s2, 0.2, 0.95)
	case Turn:
		return clamp((gm-200)/250, 0.2, 0.9)
	case Bump:
		return clamp((am-2.0)/1.5, 0.2, 0.85)
	default:
		return NormalConfidence
	}
}
