// Package classify maps a feature vector to an event class.
package classify

import (
	"fmt"

	"luma/internal/features"
)

// EventClass ordinals are part of the wire format; do not reorder.
type EventClass uint8

const (
	Brake EventClass = iota
	Bump
	Crash
	Normal
	Turn

	numClasses
)

var classNames = [numClasses]string{"brake", "bump", "crash", "normal", "turn"}

func (c EventClass) String() string {
	if c < numClasses {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Valid reports whether c is one of the known classes.
func (c EventClass) Valid() bool { return c < numClasses }

// ParseClass accepts the lower-case class name.
func ParseClass(s string) (EventClass, error) {
	for i, n := range classNames {
		if n == s {
			return EventClass(i), nil
		}
	}
	return 0, fmt.Errorf("classify: unknown class %q", s)
}

// Classification is a class with a confidence in [0,1].
type Classification struct {
	Class      EventClass
	Confidence float64
}

// Classifier is implemented by every strategy.
type Classifier interface {
	Classify(v *features.Vector) Classification
}

// Strategy names accepted by New.
const (
	StrategyThreshold = "threshold"
	StrategyTree      = "tree"
)

// New returns the classifier for a strategy name. Empty selects the threshold
// strategy.
func New(strategy string) (Classifier, error) {
	switch strategy {
	case "", StrategyThreshold:
		return Threshold{}, nil
	case StrategyTree:
		return Tree{}, nil
	default:
		return nil, fmt.Errorf("classify: unknown strategy %q", strategy)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
