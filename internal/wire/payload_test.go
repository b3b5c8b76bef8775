package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"luma/internal/imu"
)

func TestTelemetry_RoundTrip(t *testing.T) {
	in := Telemetry{Ax: 0.015625, Ay: -0.5, Az: 1.0009766, Gx: 12.5, Gy: -250.25, Gz: 0, TimestampMs: 123456}
	p := in.Append(nil)
	if len(p) != TelemetrySize {
		t.Fatalf("len=%d want %d", len(p), TelemetrySize)
	}
	got, err := DecodeTelemetry(p)
	if err != nil {
		t.Fatalf("DecodeTelemetry: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("round trip mismatch (-in +got):\n%s", diff)
	}
}

func TestTelemetry_Layout(t *testing.T) {
	p := Telemetry{Ax: 1, TimestampMs: 20}.Append(nil)
	want := []byte{0x00, 0x00, 0x80, 0x3f}
	if diff := cmp.Diff(want, p[:4]); diff != "" {
		t.Fatalf("ax bytes mismatch (-want +got):\n%s", diff)
	}
	if got := math.Float32frombits(uint32(p[24]) | uint32(p[25])<<8 | uint32(p[26])<<16 | uint32(p[27])<<24); got != 20 {
		t.Fatalf("timestamp=%v want 20", got)
	}
}

func TestTelemetryFromSample(t *testing.T) {
	s := imu.NewSample(0.25, 0.5, 1, 10, 20, 30, 40)
	got := TelemetryFromSample(s)
	want := Telemetry{Ax: 0.25, Ay: 0.5, Az: 1, Gx: 10, Gy: 20, Gz: 30, TimestampMs: 40}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEvent_RoundTrip(t *testing.T) {
	for _, in := range []Event{{Class: 0, Confidence: 0.5}, {Class: 2, Confidence: 0.95}, {Class: 4, Confidence: 1}} {
		p := in.Append(nil)
		if len(p) != EventSize {
			t.Fatalf("len=%d want %d", len(p), EventSize)
		}
		got, err := DecodeEvent(p)
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if got != in {
			t.Fatalf("got=%+v want %+v", got, in)
		}
	}
}

func TestStatus_RoundTrip(t *testing.T) {
	in := Status{Pattern: 7, AccelMag: 1.25, PitchDeg: -3.5, RollDeg: 45}
	p := in.Append(nil)
	if len(p) != StatusSize {
		t.Fatalf("len=%d want %d", len(p), StatusSize)
	}
	got, err := DecodeStatus(p)
	if err != nil {
		t.Fatalf("DecodeStatus: %v", err)
	}
	if got != in {
		t.Fatalf("got=%+v want %+v", got, in)
	}
}

func TestStatusFromSample_Level(t *testing.T) {
	got := StatusFromSample(8, imu.NewSample(0, 0, 1, 0, 0, 0, 0))
	if got.Pattern != 8 || got.AccelMag != 1 || got.PitchDeg != 0 || got.RollDeg != 0 {
		t.Fatalf("status=%+v", got)
	}
}

func TestAlert(t *testing.T) {
	p := AppendAlert(nil)
	if len(p) != AlertSize || p[0] != 0x01 {
		t.Fatalf("alert=%x", p)
	}
}

func TestDecode_Short(t *testing.T) {
	if _, err := DecodeTelemetry(make([]byte, 27)); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("telemetry err=%v want ErrShortPayload", err)
	}
	if _, err := DecodeEvent(make([]byte, 4)); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("event err=%v want ErrShortPayload", err)
	}
	if _, err := DecodeStatus(nil); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("status err=%v want ErrShortPayload", err)
	}
}
