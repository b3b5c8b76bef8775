package imu

import "math"

// Sample is one 6-axis reading.
type Sample struct {
	// Accel in G.
	Ax, Ay, Az float64
	// Gyro in deg/s.
	Gx, Gy, Gz float64
	// AccelMag is the norm of the accel vector in G.
	AccelMag float64
	// TimestampMs is a monotonic millisecond clock; it wraps like a uint32.
	TimestampMs uint32
}

// NewSample builds a Sample and fills in AccelMag.
func NewSample(ax, ay, az, gx, gy, gz float64, ts uint32) Sample {
	return Sample{
		Ax: ax, Ay: ay, Az: az,
		Gx: gx, Gy: gy, Gz: gz,
		AccelMag:    math.Sqrt(ax*ax + ay*ay + az*az),
		TimestampMs: ts,
	}
}

// GyroMag is the norm of the gyro vector in deg/s.
func (s Sample) GyroMag() float64 {
	return math.Sqrt(s.Gx*s.Gx + s.Gy*s.Gy + s.Gz*s.Gz)
}

// PitchRoll returns accel-only tilt angles in degrees.
func (s Sample) PitchRoll() (pitch, roll float64) {
	pitch = math.Atan2(s.Ax, math.Sqrt(s.Ay*s.Ay+s.Az*s.Az)) * 180 / math.Pi
	roll = math.Atan2(s.Ay, math.Sqrt(s.Ax*s.Ax+s.Az*s.Az)) * 180 / math.Pi
	return pitch, roll
}

// Since returns now-then in milliseconds, tolerant of clock wrap.
func Since(now, then uint32) uint32 {
	return now - then
}
