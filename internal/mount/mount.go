// Package mount rotates raw sensor axes into the rider's body frame:
// x forward, y left, z up.
//
// The rotation is built from two facts about the installation: which sensor
// axis points forward, and where gravity points while the rider is upright.
// Gravity can be configured or learned from the first readings after boot.
package mount

import (
	"fmt"
	"math"

	"luma/internal/imu"
)

type Config struct {
	// ForwardAxis is the sensor axis facing forward: +/-1, +/-2, +/-3 for
	// x, y, z. Zero disables the remap.
	ForwardAxis int
	// Gravity is the sensor-frame accel at rest. When GravitySet is false it
	// is averaged over the first LevelSamples readings.
	Gravity      [3]float64
	GravitySet   bool
	LevelSamples int
}

type Mount struct {
	cfg Config

	ready   bool
	x, y, z [3]float64
	gravity [3]float64
	err     error

	sum [3]float64
	n   int
}

func New(cfg Config) (*Mount, error) {
	if cfg.ForwardAxis < -3 || cfg.ForwardAxis > 3 {
		return nil, fmt.Errorf("mount: invalid forward axis %d", cfg.ForwardAxis)
	}
	if cfg.LevelSamples <= 0 {
		cfg.LevelSamples = 50
	}
	m := &Mount{cfg: cfg}
	if cfg.ForwardAxis != 0 && cfg.GravitySet {
		if err := m.level(cfg.Gravity); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Enabled reports whether samples are remapped at all.
func (m *Mount) Enabled() bool { return m.cfg.ForwardAxis != 0 }

// Ready reports whether the body-frame basis is known.
func (m *Mount) Ready() bool { return m.ready }

// Err is the reason learning failed, if it did. Samples then pass through.
func (m *Mount) Err() error { return m.err }

// GravityAxis is the sensor axis closest to gravity, as +/-1..+/-3.
func (m *Mount) GravityAxis() int {
	return dominantAxis(m.gravity[0], m.gravity[1], m.gravity[2])
}

// Apply returns s in the body frame. Until the basis is known the sample is
// returned unchanged; accel magnitude does not depend on the rotation.
func (m *Mount) Apply(s imu.Sample) imu.Sample {
	if m.cfg.ForwardAxis == 0 || m.err != nil {
		return s
	}
	if !m.ready {
		m.sum[0] += s.Ax
		m.sum[1] += s.Ay
		m.sum[2] += s.Az
		m.n++
		if m.n >= m.cfg.LevelSamples {
			k := float64(m.n)
			m.err = m.level([3]float64{m.sum[0] / k, m.sum[1] / k, m.sum[2] / k})
		}
		return s
	}
	return imu.NewSample(
		dot3(s.Ax, s.Ay, s.Az, m.x), dot3(s.Ax, s.Ay, s.Az, m.y), dot3(s.Ax, s.Ay, s.Az, m.z),
		dot3(s.Gx, s.Gy, s.Gz, m.x), dot3(s.Gx, s.Gy, s.Gz, m.y), dot3(s.Gx, s.Gy, s.Gz, m.z),
		s.TimestampMs,
	)
}

// level builds an orthonormal body basis in sensor coordinates.
func (m *Mount) level(gravity [3]float64) error {
	z, err := unit3(gravity)
	if err != nil {
		return fmt.Errorf("mount: invalid gravity vector: %v", err)
	}

	x := [3]float64{}
	idx, sign := m.cfg.ForwardAxis, 1.0
	if idx < 0 {
		idx, sign = -idx, -1
	}
	x[idx-1] = sign

	// Forward must be horizontal.
	d := dot3(x[0], x[1], x[2], z)
	xu, err := unit3([3]float64{x[0] - d*z[0], x[1] - d*z[1], x[2] - d*z[2]})
	if err != nil || math.Abs(d) > 0.9 {
		return fmt.Errorf("mount: forward axis %+d nearly vertical", m.cfg.ForwardAxis)
	}
	yu, err := unit3(cross3(z, xu))
	if err != nil {
		return fmt.Errorf("mount: invalid basis")
	}

	m.x, m.y, m.z = xu, yu, z
	m.gravity = gravity
	m.ready = true
	return nil
}

func dominantAxis(ax, ay, az float64) int {
	a1, a2, a3 := math.Abs(ax), math.Abs(ay), math.Abs(az)
	if a1 >= a2 && a1 >= a3 {
		if ax >= 0 {
			return 1
		}
		return -1
	}
	if a2 >= a1 && a2 >= a3 {
		if ay >= 0 {
			return 2
		}
		return -2
	}
	if az >= 0 {
		return 3
	}
	return -3
}

func dot3(ax, ay, az float64, b [3]float64) float64 {
	return ax*b[0] + ay*b[1] + az*b[2]
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func unit3(v [3]float64) ([3]float64, error) {
	n := norm3(v)
	if n <= 1e-9 {
		return [3]float64{}, fmt.Errorf("zero vector")
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}, nil
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
