package actuation

import (
	"fmt"
	"math"
	"time"
)

// Pattern ordinals are reported in the status payload.
type Pattern uint8

const (
	Off Pattern = iota
	Brake
	Crash
	TurnLeft
	TurnRight
	Party
	Connected
	Armed
	Idle
	Fault

	numPatterns
)

var patternNames = [numPatterns]string{
	"off", "brake", "crash", "turn_left", "turn_right", "party", "connected", "armed", "idle", "fault",
}

func (p Pattern) String() string {
	if p < numPatterns {
		return patternNames[p]
	}
	return fmt.Sprintf("pattern(%d)", uint8(p))
}

// painter renders a pattern. paint must depend only on step and frame size;
// next returns the step after a repaint.
type painter struct {
	interval time.Duration
	paint    func(f Frame, step int)
	next     func(step, n int) int
}

func hold(step, _ int) int    { return step }
func advance(step, _ int) int { return step + 1 }
func toggle(step, _ int) int  { return 1 - step }

var painters = [numPatterns]painter{
	Off: {
		interval: 100 * time.Millisecond,
		paint:    func(f Frame, _ int) { f.Clear() },
		next:     hold,
	},
	Brake: {
		interval: 40 * time.Millisecond,
		paint:    paintBrake,
		next: func(step, n int) int {
			step++
			if step > n/2 {
				return 0
			}
			return step
		},
	},
	Crash: {
		interval: 100 * time.Millisecond,
		paint:    flash(red),
		next:     toggle,
	},
	TurnLeft: {
		interval: 70 * time.Millisecond,
		paint:    func(f Frame, step int) { paintTurn(f, step, -1) },
		next:     turnNext,
	},
	TurnRight: {
		interval: 70 * time.Millisecond,
		paint:    func(f Frame, step int) { paintTurn(f, step, 1) },
		next:     turnNext,
	},
	Party: {
		interval: 20 * time.Millisecond,
		paint:    paintParty,
		next:     func(step, _ int) int { return (step + 1) % 256 },
	},
	Connected: {
		interval: 30 * time.Millisecond,
		paint: func(f Frame, step int) {
			breath := (math.Sin(float64(step)*0.06) + 1) * 0.5
			f.Fill(Color{G: uint8(breath * 110)})
		},
		next: advance,
	},
	Armed: {
		interval: 100 * time.Millisecond,
		paint:    func(f Frame, _ int) { f.Fill(Color{R: 60}) },
		next:     hold,
	},
	Idle: {
		interval: 50 * time.Millisecond,
		paint: func(f Frame, step int) {
			pulse := (math.Sin(float64(step)*0.03) + 1) * 0.5
			f.Fill(Color{B: uint8(pulse*30 + 10)})
		},
		next: advance,
	},
	Fault: {
		interval: 300 * time.Millisecond,
		paint:    flash(red),
		next:     toggle,
	},
}

// flash paints c on even steps and black on odd ones.
func flash(c Color) func(Frame, int) {
	return func(f Frame, step int) {
		if step%2 == 0 {
			f.Fill(c)
			return
		}
		f.Clear()
	}
}

// paintBrake grows a red bar outward from the middle of the strip.
func paintBrake(f Frame, step int) {
	f.Clear()
	n := len(f)
	half := n / 2
	w := step
	if w > half {
		w = 0
	}
	for k := 0; k <= w; k++ {
		f.set(half-1-k, red)
		f.set(half+k, red)
	}
}

// paintTurn sweeps amber from the middle toward one end; dir is -1 for left.
func paintTurn(f Frame, step, dir int) {
	f.Clear()
	n := len(f)
	half := n / 2
	start := half
	if dir < 0 {
		start = half - 1
	}
	for k := 0; k <= step && k < half; k++ {
		f.set(start+dir*k, amber)
	}
}

func turnNext(step, n int) int {
	step++
	if step > n/2+2 {
		return 0
	}
	return step
}

func paintParty(f Frame, step int) {
	n := len(f)
	for i := range f {
		hue := (i*65536/n + step*256) % 65536
		f[i] = gamma(hueColor(uint16(hue)))
	}
}
