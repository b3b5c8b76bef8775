package actuation

import "time"

// Config sizes the strip and the timed indicators.
type Config struct {
	LEDCount int
	// ConnectIndicator is how long the connected pattern shows after a link comes up.
	ConnectIndicator time.Duration
}

// Machine owns the current lighting pattern. It is driven from a single
// goroutine: every method must be called from the control loop.
type Machine struct {
	cfg Config

	pattern Pattern
	saved   Pattern
	linked  bool

	step      int
	lastPaint uint32
	dirty     bool

	brakeEnd     uint32
	connectEnd   uint32
	crashSinceMs uint32

	frame Frame
}

func NewMachine(cfg Config) *Machine {
	if cfg.LEDCount <= 0 {
		cfg.LEDCount = 12
	}
	if cfg.ConnectIndicator <= 0 {
		cfg.ConnectIndicator = 3 * time.Second
	}
	return &Machine{
		cfg:     cfg,
		pattern: Idle,
		saved:   Idle,
		dirty:   true,
		frame:   make(Frame, cfg.LEDCount),
	}
}

func (m *Machine) Pattern() Pattern { return m.pattern }
func (m *Machine) Linked() bool     { return m.linked }
func (m *Machine) Braking() bool    { return m.pattern == Brake }
func (m *Machine) Crashing() bool   { return m.pattern == Crash }

// CrashSince is the tick time the crash pattern was entered.
func (m *Machine) CrashSince() uint32 { return m.crashSinceMs }

func (m *Machine) resting() Pattern {
	if m.linked {
		return Armed
	}
	return Idle
}

func (m *Machine) set(p Pattern) {
	m.pattern = p
	m.step = 0
	m.dirty = true
}

// Brake shows the brake pattern until now+hold. The pattern it replaces
// comes back when the hold expires. It is ignored while crashing or faulted.
func (m *Machine) Brake(now uint32, hold time.Duration) bool {
	switch m.pattern {
	case Crash, Fault:
		return false
	case Brake:
		m.brakeEnd = now + ms(hold)
		return true
	}
	m.saved = m.pattern
	if m.saved == Connected {
		m.saved = m.resting()
	}
	m.brakeEnd = now + ms(hold)
	m.set(Brake)
	return true
}

// ExtendBrake pushes out the end of an active brake pattern.
func (m *Machine) ExtendBrake(now uint32, hold time.Duration) bool {
	if m.pattern != Brake {
		return false
	}
	m.brakeEnd = now + ms(hold)
	return true
}

// Crash latches the crash pattern until it is dismissed.
func (m *Machine) Crash(now uint32) bool {
	if m.pattern == Fault || m.pattern == Crash {
		return false
	}
	m.crashSinceMs = now
	m.set(Crash)
	return true
}

// Fault latches the fault pattern. Nothing leaves it.
func (m *Machine) Fault() {
	m.set(Fault)
}

// Apply runs a companion command. It reports whether the pattern changed.
func (m *Machine) Apply(c Command) bool {
	before := m.pattern
	switch m.pattern {
	case Fault:
		return false
	case Crash:
		if c == CmdCrashDismiss {
			m.set(m.resting())
		}
		return m.pattern != before
	}

	switch c {
	case CmdLeftOn:
		m.set(TurnLeft)
	case CmdRightOn:
		m.set(TurnRight)
	case CmdPartyOn:
		m.set(Party)
	case CmdTurnOff:
		m.clear(TurnLeft, TurnRight)
	case CmdPartyOff:
		m.clear(Party)
	case CmdNormal:
		m.set(m.resting())
	case CmdLightsOff:
		m.set(Off)
	}
	return m.pattern != before
}

// clear drops any of ps, whether showing or waiting behind a brake.
func (m *Machine) clear(ps ...Pattern) {
	for _, p := range ps {
		if m.pattern == p {
			m.set(m.resting())
		}
		if m.pattern == Brake && m.saved == p {
			m.saved = m.resting()
		}
	}
}

// SetLinked records a link edge.
func (m *Machine) SetLinked(now uint32, up bool) {
	if up == m.linked {
		return
	}
	m.linked = up
	if up {
		switch m.pattern {
		case Idle, Armed:
			m.connectEnd = now + ms(m.cfg.ConnectIndicator)
			m.set(Connected)
		case Brake:
			if m.saved == Idle {
				m.saved = Armed
			}
		}
		return
	}
	switch m.pattern {
	case Armed, Connected:
		m.set(Idle)
	case Brake:
		if m.saved == Armed {
			m.saved = Idle
		}
	}
}

// Advance expires timed patterns and repaints when the pattern interval
// has elapsed. The returned frame is reused by later calls.
func (m *Machine) Advance(now uint32) (Frame, bool) {
	switch m.pattern {
	case Brake:
		if reached(now, m.brakeEnd) {
			m.set(m.saved)
		}
	case Connected:
		if reached(now, m.connectEnd) {
			m.set(m.resting())
		}
	}

	p := painters[m.pattern]
	if !m.dirty && now-m.lastPaint < ms(p.interval) {
		return m.frame, false
	}
	p.paint(m.frame, m.step)
	m.step = p.next(m.step, len(m.frame))
	m.lastPaint = now
	m.dirty = false
	return m.frame, true
}

func ms(d time.Duration) uint32 { return uint32(d / time.Millisecond) }

// reached reports whether now is at or past deadline on a wrapping clock.
func reached(now, deadline uint32) bool { return int32(now-deadline) >= 0 }
