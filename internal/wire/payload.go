// Package wire encodes the payloads exchanged with the companion device.
// All multi-byte values are little-endian IEEE-754 float32.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"luma/internal/imu"
)

var ErrShortPayload = errors.New("wire: short payload")

const (
	TelemetrySize = 28
	EventSize     = 5
	StatusSize    = 13
	AlertSize     = 1
)

// AlertCrashUnconfirmed is the only alert code.
const AlertCrashUnconfirmed byte = 0x01

// Telemetry is one sample as carried on the imu topic. The timestamp is the
// millisecond clock converted to float32, so it loses precision past 2^24 ms.
type Telemetry struct {
	Ax, Ay, Az  float32
	Gx, Gy, Gz  float32
	TimestampMs float32
}

func TelemetryFromSample(s imu.Sample) Telemetry {
	return Telemetry{
		Ax: float32(s.Ax), Ay: float32(s.Ay), Az: float32(s.Az),
		Gx: float32(s.Gx), Gy: float32(s.Gy), Gz: float32(s.Gz),
		TimestampMs: float32(s.TimestampMs),
	}
}

func (t Telemetry) Append(dst []byte) []byte {
	for _, f := range [...]float32{t.Ax, t.Ay, t.Az, t.Gx, t.Gy, t.Gz, t.TimestampMs} {
		dst = appendFloat(dst, f)
	}
	return dst
}

func DecodeTelemetry(p []byte) (Telemetry, error) {
	if err := need(p, TelemetrySize, "telemetry"); err != nil {
		return Telemetry{}, err
	}
	var f [7]float32
	for i := range f {
		f[i] = readFloat(p[i*4:])
	}
	return Telemetry{
		Ax: f[0], Ay: f[1], Az: f[2],
		Gx: f[3], Gy: f[4], Gz: f[5],
		TimestampMs: f[6],
	}, nil
}

// Event is a classification result: class ordinal and confidence.
type Event struct {
	Class      uint8
	Confidence float32
}

func (e Event) Append(dst []byte) []byte {
	dst = append(dst, e.Class)
	return appendFloat(dst, e.Confidence)
}

func DecodeEvent(p []byte) (Event, error) {
	if err := need(p, EventSize, "event"); err != nil {
		return Event{}, err
	}
	return Event{Class: p[0], Confidence: readFloat(p[1:])}, nil
}

// Status is the periodic state summary: pattern ordinal, accel magnitude
// and accel-only tilt.
type Status struct {
	Pattern  uint8
	AccelMag float32
	PitchDeg float32
	RollDeg  float32
}

func StatusFromSample(pattern uint8, s imu.Sample) Status {
	pitch, roll := s.PitchRoll()
	return Status{
		Pattern:  pattern,
		AccelMag: float32(s.AccelMag),
		PitchDeg: float32(pitch),
		RollDeg:  float32(roll),
	}
}

func (s Status) Append(dst []byte) []byte {
	dst = append(dst, s.Pattern)
	dst = appendFloat(dst, s.AccelMag)
	dst = appendFloat(dst, s.PitchDeg)
	return appendFloat(dst, s.RollDeg)
}

func DecodeStatus(p []byte) (Status, error) {
	if err := need(p, StatusSize, "status"); err != nil {
		return Status{}, err
	}
	return Status{
		Pattern:  p[0],
		AccelMag: readFloat(p[1:]),
		PitchDeg: readFloat(p[5:]),
		RollDeg:  readFloat(p[9:]),
	}, nil
}

func AppendAlert(dst []byte) []byte { return append(dst, AlertCrashUnconfirmed) }

func need(p []byte, n int, what string) error {
	if len(p) < n {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, what, n, len(p))
	}
	return nil
}

func appendFloat(dst []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
}

func readFloat(p []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}
