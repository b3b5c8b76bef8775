package mount

import (
	"math"
	"testing"

	"luma/internal/imu"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDominantAxis(t *testing.T) {
	cases := []struct {
		ax, ay, az float64
		want       int
	}{
		{0.9, 0.1, 0.2, 1},
		{-0.9, 0.1, 0.2, -1},
		{0.1, -0.8, 0.2, -2},
		{0.1, 0.2, 0.3, 3},
		{0.1, 0.2, -0.3, -3},
		// Tie-break prefers x.
		{1, 1, 0, 1},
	}
	for _, tc := range cases {
		if got := dominantAxis(tc.ax, tc.ay, tc.az); got != tc.want {
			t.Fatalf("dominantAxis(%v,%v,%v)=%d want %d", tc.ax, tc.ay, tc.az, got, tc.want)
		}
	}
}

func TestNew_Disabled(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := imu.NewSample(0.3, -0.2, 0.9, 5, 6, 7, 42)
	if got := m.Apply(s); got != s {
		t.Fatalf("Apply changed sample: %+v", got)
	}
	if m.Enabled() {
		t.Fatalf("expected disabled")
	}
}

func TestNew_InvalidAxis(t *testing.T) {
	if _, err := New(Config{ForwardAxis: 4}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_ForwardAxisVertical(t *testing.T) {
	_, err := New(Config{ForwardAxis: 3, Gravity: [3]float64{0, 0, 1}, GravitySet: true})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_ZeroGravity(t *testing.T) {
	if _, err := New(Config{ForwardAxis: 1, GravitySet: true}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApply_Identity(t *testing.T) {
	m, err := New(Config{ForwardAxis: 1, Gravity: [3]float64{0, 0, 1}, GravitySet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := m.Apply(imu.NewSample(-0.5, 0.2, 1, 1, 2, 3, 7))
	if !near(got.Ax, -0.5) || !near(got.Ay, 0.2) || !near(got.Az, 1) {
		t.Fatalf("accel=%v,%v,%v", got.Ax, got.Ay, got.Az)
	}
	if !near(got.Gx, 1) || !near(got.Gy, 2) || !near(got.Gz, 3) || got.TimestampMs != 7 {
		t.Fatalf("sample=%+v", got)
	}
}

// Sensor standing on its side: x up, y forward.
func TestApply_SideMount(t *testing.T) {
	m, err := New(Config{ForwardAxis: 2, Gravity: [3]float64{1, 0, 0}, GravitySet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Braking pulls back along sensor -y; yaw is about sensor x.
	got := m.Apply(imu.NewSample(1, -0.5, 0, 30, 0, 0, 0))
	if !near(got.Ax, -0.5) || !near(got.Ay, 0) || !near(got.Az, 1) {
		t.Fatalf("accel=%v,%v,%v want -0.5,0,1", got.Ax, got.Ay, got.Az)
	}
	if !near(got.Gz, 30) || !near(got.Gx, 0) {
		t.Fatalf("gyro=%v,%v,%v want 0,0,30", got.Gx, got.Gy, got.Gz)
	}
	if !near(got.AccelMag, math.Sqrt(1.25)) {
		t.Fatalf("mag=%v", got.AccelMag)
	}
}

func TestApply_LearnsGravity(t *testing.T) {
	m, err := New(Config{ForwardAxis: -1, LevelSamples: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Upside down: gravity reads along sensor -z.
	rest := imu.NewSample(0, 0, -1, 0, 0, 0, 0)
	for i := 0; i < 4; i++ {
		if got := m.Apply(rest); got != rest {
			t.Fatalf("sample changed while leveling")
		}
	}
	if !m.Ready() || m.Err() != nil {
		t.Fatalf("ready=%v err=%v", m.Ready(), m.Err())
	}
	if m.GravityAxis() != -3 {
		t.Fatalf("gravity axis=%d want -3", m.GravityAxis())
	}
	// Forward is sensor -x, so a reading of +0.4 on x is braking.
	got := m.Apply(imu.NewSample(0.4, 0, -1, 0, 0, 0, 0))
	if !near(got.Ax, -0.4) || !near(got.Az, 1) {
		t.Fatalf("accel=%v,%v,%v", got.Ax, got.Ay, got.Az)
	}
}

func TestApply_LearningFailurePassesThrough(t *testing.T) {
	m, err := New(Config{ForwardAxis: 3, LevelSamples: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rest := imu.NewSample(0, 0, 1, 0, 0, 0, 0)
	m.Apply(rest)
	m.Apply(rest)
	if m.Err() == nil || m.Ready() {
		t.Fatalf("expected learning failure, err=%v ready=%v", m.Err(), m.Ready())
	}
	s := imu.NewSample(0.2, 0.1, 1, 0, 0, 0, 3)
	if got := m.Apply(s); got != s {
		t.Fatalf("sample changed after failure")
	}
}
