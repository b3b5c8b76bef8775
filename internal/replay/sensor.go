package replay

import (
	"errors"

	"luma/internal/imu"
	"luma/internal/wire"
)

// ErrEnd is returned by Sensor.Read once a non-looping log is exhausted.
var ErrEnd = errors.New("replay: end of log")

// Sensor feeds the imu frames of a ride log back as samples. Recorded
// timestamps are replaced by the caller's clock.
type Sensor struct {
	samples []wire.Telemetry
	next    int
	loop    bool
}

// NewSensor keeps every imu frame with a valid checksum. Other topics are
// skipped.
func NewSensor(records []Record, loop bool) (*Sensor, error) {
	var samples []wire.Telemetry
	for _, r := range records {
		if r.Frame == nil {
			continue
		}
		topic, payload, ok, err := wire.Unframe(r.Frame)
		if err != nil || !ok || topic != wire.TopicIMU {
			continue
		}
		t, err := wire.DecodeTelemetry(payload)
		if err != nil {
			continue
		}
		samples = append(samples, t)
	}
	if len(samples) == 0 {
		return nil, errors.New("replay: log has no imu frames")
	}
	return &Sensor{samples: samples, loop: loop}, nil
}

// OpenSensor reads the log at path.
func OpenSensor(path string, loop bool) (*Sensor, error) {
	recs, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSensor(recs, loop)
}

func (s *Sensor) Len() int { return len(s.samples) }

func (s *Sensor) Read(now uint32) (imu.Sample, error) {
	if s.next >= len(s.samples) {
		if !s.loop {
			return imu.Sample{}, ErrEnd
		}
		s.next = 0
	}
	t := s.samples[s.next]
	s.next++
	return imu.NewSample(
		float64(t.Ax), float64(t.Ay), float64(t.Az),
		float64(t.Gx), float64(t.Gy), float64(t.Gz),
		now,
	), nil
}

func (s *Sensor) Close() error { return nil }
