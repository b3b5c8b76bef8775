package ledstrip

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"luma/internal/actuation"
)

func TestAppendScaled(t *testing.T) {
	f := actuation.Frame{{R: 255, G: 0, B: 100}, {R: 10, G: 20, B: 30}}
	got := AppendScaled(nil, f, 153)
	want := []byte{153, 0, 60, 6, 12, 18}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scaled mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{255, 0, 100, 10, 20, 30}, AppendScaled(nil, f, 255)); diff != "" {
		t.Fatalf("full brightness mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0, 0, 0, 0, 0, 0}, AppendScaled(nil, f, 0)); diff != "" {
		t.Fatalf("zero brightness mismatch (-want +got):\n%s", diff)
	}
}

func TestClampBrightness(t *testing.T) {
	cases := map[int]uint8{-3: 0, 0: 0, 153: 153, 255: 255, 900: 255}
	for in, want := range cases {
		if got := clampBrightness(in); got != want {
			t.Fatalf("clampBrightness(%d)=%d want %d", in, got, want)
		}
	}
}

func TestOpen_None(t *testing.T) {
	s, err := Open(Config{Driver: "none"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Show(make(actuation.Frame, 4)); err != nil {
			t.Fatalf("Show: %v", err)
		}
	}
	if n := s.(*None).Shown(); n != 3 {
		t.Fatalf("shown=%d want 3", n)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "dotstar"}); err == nil {
		t.Fatalf("expected error")
	}
}
