package features

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"luma/internal/imu"
)

func restWindow(n int) []imu.Sample {
	w := make([]imu.Sample, n)
	for i := range w {
		w[i] = imu.NewSample(0, 0, 1, 0, 0, 0, uint32(i*20))
	}
	return w
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExtract_RestWindow(t *testing.T) {
	v := NewExtractor(50).Extract(restWindow(150))

	checks := map[string]float64{
		"accel_z_mean":       1,
		"accel_z_std":        0,
		"accel_z_median":     1,
		"accel_z_skew":       0,
		"accel_z_kurtosis":   0,
		"accel_mag_max":      1,
		"accel_mag_range":    0,
		"gyro_mag_max":       0,
		"jerk_mean":          0,
		"jerk_max":           0,
		"accel_energy":       1,
		"gyro_energy":        0,
		"gyro_x_zcr":         0,
		"peak_position":      0,
		"accel_x_kurtosis":   0,
		"accel_mag_kurtosis": 0,
	}
	for name, want := range checks {
		i := Index(name)
		if i < 0 {
			t.Fatalf("unknown feature %q", name)
		}
		if !near(v[i], want) {
			t.Fatalf("%s=%v want %v", name, v[i], want)
		}
	}
}

func TestExtract_IsPure(t *testing.T) {
	w := restWindow(150)
	w[40] = imu.NewSample(2, -1, 3, 120, -30, 10, 800)
	w[41] = imu.NewSample(0.5, 0.2, 0.8, -50, 20, 5, 820)

	e := NewExtractor(50)
	a := e.Extract(w)
	b := e.Extract(w)
	c := NewExtractor(50).Extract(w)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same extractor differs (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a, c, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("fresh extractor differs (-a +c):\n%s", diff)
	}
}

func TestExtract_JerkAndPeak(t *testing.T) {
	w := restWindow(150)
	// One sample at 4 g along z: |Δmag| = 3 g both ways -> 150 g/s at 50 Hz.
	w[75] = imu.NewSample(0, 0, 4, 0, 0, 0, 1500)

	v := NewExtractor(50).Extract(w)
	if !near(v[JerkMax], 150) {
		t.Fatalf("jerk_max=%v want 150", v[JerkMax])
	}
	if !near(v[JerkMean], 300.0/149.0) {
		t.Fatalf("jerk_mean=%v want %v", v[JerkMean], 300.0/149.0)
	}
	if !near(v[AccelMagMax], 4) {
		t.Fatalf("accel_mag_max=%v want 4", v[AccelMagMax])
	}
	if !near(v[Index("peak_position")], 0.5) {
		t.Fatalf("peak_position=%v want 0.5", v[Index("peak_position")])
	}
	// Median slot carries the mean.
	if v[Index("accel_mag_median")] != v[Index("accel_mag_mean")] {
		t.Fatalf("median slot should equal mean")
	}
	if v[Index("accel_mag_skew")] <= 0 {
		t.Fatalf("single positive spike should skew right, got %v", v[Index("accel_mag_skew")])
	}
}

func TestExtract_GyroZeroCrossingAndAbsMax(t *testing.T) {
	w := restWindow(150)
	for i := range w {
		g := 10.0
		if i%2 == 1 {
			g = -30.0
		}
		w[i] = imu.NewSample(0, 0, 1, g, 0, 0, uint32(i*20))
	}
	v := NewExtractor(50).Extract(w)
	if !near(v[Index("gyro_x_zcr")], 149.0/300.0) {
		t.Fatalf("gyro_x_zcr=%v want %v", v[Index("gyro_x_zcr")], 149.0/300.0)
	}
	if !near(v[Index("gyro_x_abs_max")], 30) {
		t.Fatalf("gyro_x_abs_max=%v want 30", v[Index("gyro_x_abs_max")])
	}
	if !near(v[Index("gyro_x_range")], 40) {
		t.Fatalf("gyro_x_range=%v want 40", v[Index("gyro_x_range")])
	}
	if !near(v[Index("gyro_x_std")], 20) {
		t.Fatalf("gyro_x_std=%v want 20", v[Index("gyro_x_std")])
	}
}

func TestExtract_ShortAndEmptyWindows(t *testing.T) {
	e := NewExtractor(50)
	if v := e.Extract(nil); v != (Vector{}) {
		t.Fatalf("empty window should give zero vector")
	}
	v := e.Extract(restWindow(1))
	if !near(v[AccelMagMax], 1) || v[JerkMax] != 0 {
		t.Fatalf("single sample: mag_max=%v jerk_max=%v", v[AccelMagMax], v[JerkMax])
	}
}

func TestNames_StableLayout(t *testing.T) {
	want := map[int]string{
		AccelZStd:   "accel_z_std",
		AccelMagMax: "accel_mag_max",
		GyroMagMax:  "gyro_mag_max",
		JerkMean:    "jerk_mean",
		JerkMax:     "jerk_max",
		60:          "peak_position",
	}
	for i, n := range want {
		if Names[i] != n {
			t.Fatalf("Names[%d]=%q want %q", i, Names[i], n)
		}
	}
	seen := map[string]bool{}
	for _, n := range Names {
		if n == "" || seen[n] {
			t.Fatalf("bad or duplicate name %q", n)
		}
		seen[n] = true
	}
}
