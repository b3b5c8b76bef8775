package sim

import (
	"time"

	"luma/internal/imu"
)

// Sensor plays a Scenario back as a sample source. The first Read fixes
// the scenario origin.
type Sensor struct {
	scn     *Scenario
	loop    bool
	started bool
	origin  uint32
}

func NewSensor(scn *Scenario, loop bool) *Sensor {
	return &Sensor{scn: scn, loop: loop}
}

func (s *Sensor) Read(now uint32) (imu.Sample, error) {
	if !s.started {
		s.started = true
		s.origin = now
	}
	elapsed := time.Duration(imu.Since(now, s.origin)) * time.Millisecond
	r := s.scn.ReadingAt(elapsed, s.loop)
	return imu.NewSample(r.Ax, r.Ay, r.Az, r.Gx, r.Gy, r.Gz, now), nil
}

func (s *Sensor) Close() error { return nil }

// Render samples the whole scenario at rateHz starting at timestamp start.
func Render(scn *Scenario, rateHz float64, start uint32) []imu.Sample {
	if scn == nil || rateHz <= 0 {
		return nil
	}
	period := time.Duration(float64(time.Second) / rateHz)
	n := int(scn.Duration() / period)
	out := make([]imu.Sample, 0, n)
	for i := 0; i < n; i++ {
		elapsed := time.Duration(i) * period
		r := scn.ReadingAt(elapsed, false)
		ts := start + uint32(elapsed/time.Millisecond)
		out = append(out, imu.NewSample(r.Ax, r.Ay, r.Az, r.Gx, r.Gy, r.Gz, ts))
	}
	return out
}
