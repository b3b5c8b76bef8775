package button

import (
	"errors"
	"io"
	"testing"
	"time"

	"luma/internal/actuation"
)

type fakeLine struct{ closed bool }

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func withFakeLine(t *testing.T) (*fakeLine, *func(time.Duration)) {
	t.Helper()
	line := &fakeLine{}
	var press func(time.Duration)
	old := openLineFn
	openLineFn = func(chip string, offset int, onPress func(time.Duration)) (io.Closer, error) {
		press = onPress
		return line, nil
	}
	t.Cleanup(func() { openLineFn = old })
	return line, &press
}

func TestOpen_DisabledIsNil(t *testing.T) {
	b, err := Open(Config{}, &actuation.Mailbox{})
	if err != nil || b != nil {
		t.Fatalf("Open disabled = %v, %v; want nil, nil", b, err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}

func TestOpen_Error(t *testing.T) {
	old := openLineFn
	openLineFn = func(string, int, func(time.Duration)) (io.Closer, error) {
		return nil, errors.New("busy")
	}
	t.Cleanup(func() { openLineFn = old })

	if _, err := Open(Config{Enable: true, Line: 17}, &actuation.Mailbox{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPress_PostsDismiss(t *testing.T) {
	line, press := withFakeLine(t)
	mb := &actuation.Mailbox{}
	b, err := Open(Config{Enable: true, Line: 17}, mb)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	(*press)(time.Second)
	c, ok := mb.Take()
	if !ok || c != actuation.CmdCrashDismiss {
		t.Fatalf("Take=%v,%v want CRASH_DISMISS", c, ok)
	}
	if err := b.Close(); err != nil || !line.closed {
		t.Fatalf("Close err=%v closed=%v", err, line.closed)
	}
}

func TestPress_Debounce(t *testing.T) {
	_, press := withFakeLine(t)
	mb := &actuation.Mailbox{}
	b, err := Open(Config{Enable: true, Debounce: 50 * time.Millisecond}, mb)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	for _, ts := range []int{1000, 1010, 1049, 1050, 1080, 1200} {
		(*press)(ms(ts))
	}
	// Accepted: 1000, 1050, 1200.
	if b.Presses() != 3 {
		t.Fatalf("presses=%d want 3", b.Presses())
	}
	if b.Ignored() != 3 {
		t.Fatalf("ignored=%d want 3", b.Ignored())
	}
	if mb.Replaced() != 2 {
		t.Fatalf("replaced=%d want 2", mb.Replaced())
	}
}
