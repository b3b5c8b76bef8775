package sim

import (
	"math"
	"strings"
	"testing"
	"time"
)

func mustScenario(t *testing.T, src string) *Scenario {
	t.Helper()
	script, err := ParseScriptYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseScriptYAML: %v", err)
	}
	scn, err := NewScenario(script)
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	return scn
}

func TestScenario_ParseDefaultsAndDuration(t *testing.T) {
	scn := mustScenario(t, `
version: 1
segments:
  - kind: rest
    duration: 3s
  - kind: brake
  - kind: Turn
    direction: RIGHT
  - kind: impact
`)
	want := 3*time.Second + 500*time.Millisecond + 2*time.Second + 20*time.Millisecond
	if scn.Duration() != want {
		t.Fatalf("duration: got %s want %s", scn.Duration(), want)
	}

	r := scn.ReadingAt(3200*time.Millisecond, false)
	if r.Ax != -1 || r.Az != 1 {
		t.Fatalf("brake reading=%+v want ax=-1 az=1", r)
	}
	r = scn.ReadingAt(4*time.Second, false)
	if r.Gz != -250 || r.Ay != -0.3 {
		t.Fatalf("right turn reading=%+v", r)
	}
	r = scn.ReadingAt(5510*time.Millisecond, false)
	if r.Ax != -4 || r.Gx != 260 {
		t.Fatalf("impact reading=%+v", r)
	}
}

func TestScenario_LoopAndClamp(t *testing.T) {
	scn := mustScenario(t, `
segments:
  - kind: brake
    duration: 1s
    peak_g: 0.5
  - kind: rest
    duration: 1s
`)
	if r := scn.ReadingAt(2500*time.Millisecond, false); r.Ax != 0 || r.Az != 1 {
		t.Fatalf("clamped reading=%+v want rest", r)
	}
	if r := scn.ReadingAt(2500*time.Millisecond, true); r.Ax != -0.5 {
		t.Fatalf("looped reading=%+v want brake", r)
	}
}

func TestScenario_BumpIsHalfSine(t *testing.T) {
	scn := mustScenario(t, `
segments:
  - kind: bump
    duration: 100ms
    peak_g: 3
`)
	r := scn.ReadingAt(50*time.Millisecond, false)
	if math.Abs(r.Az-3) > 1e-9 {
		t.Fatalf("bump peak az=%v want 3", r.Az)
	}
	if r := scn.ReadingAt(0, false); r.Az != 1 {
		t.Fatalf("bump start az=%v want 1", r.Az)
	}
}

func TestNewScenario_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "version: 1\n", "segments is required"},
		{"version", "version: 2\nsegments:\n  - kind: rest\n", "unsupported scenario version 2"},
		{"kind", "segments:\n  - kind: wheelie\n", "segments[0].kind must be"},
		{"direction", "segments:\n  - kind: turn\n    direction: up\n", "segments[0].direction must be left or right"},
		{"duration", "segments:\n  - kind: rest\n  - kind: rest\n    duration: -1s\n", "segments[1].duration must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			script, err := ParseScriptYAML([]byte(tc.src))
			if err != nil {
				t.Fatalf("ParseScriptYAML: %v", err)
			}
			_, err = NewScenario(script)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want containing %q", err, tc.want)
			}
		})
	}
}

func TestSensor_StampsAndOrigin(t *testing.T) {
	scn := mustScenario(t, `
segments:
  - kind: rest
    duration: 100ms
  - kind: brake
    duration: 100ms
`)
	s := NewSensor(scn, false)
	first, err := s.Read(5000)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if first.TimestampMs != 5000 || first.AccelMag != 1 {
		t.Fatalf("first=%+v", first)
	}
	got, _ := s.Read(5120)
	if got.Ax != -1 {
		t.Fatalf("ax=%v want -1 at 120ms", got.Ax)
	}
}

func TestRender(t *testing.T) {
	scn := mustScenario(t, `
segments:
  - kind: rest
    duration: 1s
`)
	out := Render(scn, 50, 100)
	if len(out) != 50 {
		t.Fatalf("len=%d want 50", len(out))
	}
	if out[0].TimestampMs != 100 || out[49].TimestampMs != 100+49*20 {
		t.Fatalf("timestamps %d..%d", out[0].TimestampMs, out[49].TimestampMs)
	}
}
