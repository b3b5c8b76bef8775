package sim

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a deterministic, script-driven ride description.
//
// Time is expressed as Go duration strings ("20ms", "2s"). Segments play
// back to back; the scenario duration is their sum.
//
// YAML schema (v1):
//
//	version: 1
//	segments:
//	  - kind: rest
//	    duration: 4s
//	  - kind: brake
//	    duration: 500ms
//	    peak_g: 1.0
//	  - kind: turn
//	    duration: 2s
//	    direction: left
//	    gyro_dps: 250
//	  - kind: impact
//	    peak_g: 4.0
//	    gyro_dps: 260
//	  - kind: bump
//	    peak_g: 2.6
//
// Body frame: x forward, y left, z up. At rest the sensor reads +1 g on z.
type Script struct {
	Version  int       `yaml:"version"`
	Segments []Segment `yaml:"segments"`
}

type Segment struct {
	Kind     string        `yaml:"kind"`
	Duration time.Duration `yaml:"duration"`
	// PeakG is the segment's characteristic acceleration in g.
	PeakG float64 `yaml:"peak_g"`
	// GyroDps is the segment's characteristic rotation rate.
	GyroDps float64 `yaml:"gyro_dps"`
	// Direction applies to turns: left or right.
	Direction string `yaml:"direction"`
	// VibrationG adds a 13 Hz road vibration on z.
	VibrationG float64 `yaml:"vibration_g"`
}

const (
	KindRest   = "rest"
	KindBrake  = "brake"
	KindImpact = "impact"
	KindTurn   = "turn"
	KindBump   = "bump"
)

// Defaults per kind, applied to zero fields.
var segmentDefaults = map[string]Segment{
	KindRest:   {Duration: time.Second},
	KindBrake:  {Duration: 500 * time.Millisecond, PeakG: 1.0},
	KindImpact: {Duration: 20 * time.Millisecond, PeakG: 4.0, GyroDps: 260},
	KindTurn:   {Duration: 2 * time.Second, PeakG: 0.3, GyroDps: 250, Direction: "left"},
	KindBump:   {Duration: 100 * time.Millisecond, PeakG: 2.6},
}

// Scenario is the validated runtime form of a Script.
type Scenario struct {
	segs     []Segment
	starts   []time.Duration
	duration time.Duration
}

// Reading is the motion at one instant.
type Reading struct {
	Ax, Ay, Az float64
	Gx, Gy, Gz float64
}

func LoadScript(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	return ParseScriptYAML(b)
}

func ParseScriptYAML(b []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Script{}, err
	}
	return s, nil
}

// NewScenario validates script, fills per-kind defaults and returns a
// runtime Scenario.
func NewScenario(script Script) (*Scenario, error) {
	if script.Version == 0 {
		script.Version = 1
	}
	if script.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version %d", script.Version)
	}
	if len(script.Segments) == 0 {
		return nil, fmt.Errorf("segments is required")
	}

	s := &Scenario{
		segs:   make([]Segment, 0, len(script.Segments)),
		starts: make([]time.Duration, 0, len(script.Segments)),
	}
	for i, seg := range script.Segments {
		seg.Kind = strings.ToLower(strings.TrimSpace(seg.Kind))
		def, ok := segmentDefaults[seg.Kind]
		if !ok {
			return nil, fmt.Errorf("segments[%d].kind must be one of rest, brake, impact, turn, bump", i)
		}
		if seg.Duration < 0 {
			return nil, fmt.Errorf("segments[%d].duration must be >= 0", i)
		}
		if seg.Duration == 0 {
			seg.Duration = def.Duration
		}
		if seg.PeakG == 0 {
			seg.PeakG = def.PeakG
		}
		if seg.GyroDps == 0 {
			seg.GyroDps = def.GyroDps
		}
		if seg.Kind == KindTurn {
			if seg.Direction == "" {
				seg.Direction = def.Direction
			}
			seg.Direction = strings.ToLower(seg.Direction)
			if seg.Direction != "left" && seg.Direction != "right" {
				return nil, fmt.Errorf("segments[%d].direction must be left or right", i)
			}
		}
		s.starts = append(s.starts, s.duration)
		s.segs = append(s.segs, seg)
		s.duration += seg.Duration
	}
	return s, nil
}

func (s *Scenario) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.duration
}

// ReadingAt computes the motion at elapsed.
//
// If loop is true, elapsed wraps around Duration(). Otherwise elapsed is
// clamped and the scenario rests after its last segment.
func (s *Scenario) ReadingAt(elapsed time.Duration, loop bool) Reading {
	rest := Reading{Az: 1}
	if s == nil || s.duration <= 0 {
		return rest
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if loop {
		elapsed %= s.duration
	} else if elapsed >= s.duration {
		return rest
	}

	idx := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > elapsed }) - 1
	if idx < 0 {
		idx = 0
	}
	seg := s.segs[idx]
	into := elapsed - s.starts[idx]
	u := float64(into) / float64(seg.Duration)

	r := shape(seg, u)
	if seg.VibrationG != 0 {
		r.Az += seg.VibrationG * math.Sin(2*math.Pi*13*into.Seconds())
	}
	return r
}

// shape maps a segment and its progress u in [0,1) onto a reading.
func shape(seg Segment, u float64) Reading {
	r := Reading{Az: 1}
	switch seg.Kind {
	case KindBrake:
		r.Ax = -seg.PeakG
	case KindImpact:
		r.Ax = -seg.PeakG
		r.Gx = seg.GyroDps
	case KindTurn:
		sign := 1.0
		if seg.Direction == "right" {
			sign = -1
		}
		r.Ay = sign * seg.PeakG
		r.Gz = sign * seg.GyroDps
	case KindBump:
		r.Az = 1 + (seg.PeakG-1)*math.Sin(math.Pi*u)
	}
	return r
}
