package actuation

import (
	"errors"
	"sync"
	"testing"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"LEFT_ON", CmdLeftOn},
		{"RIGHT_ON\n", CmdRightOn},
		{" TURN_OFF ", CmdTurnOff},
		{"PARTY_ON\x00", CmdPartyOn},
		{"PARTY_OFF", CmdPartyOff},
		{"CRASH_DISMISS", CmdCrashDismiss},
		{"NORMAL", CmdNormal},
		{"OFF", CmdLightsOff},
		{"\x01", CmdLeftOn},
		{"\x02", CmdTurnOff},
		{"\x03", CmdRightOn},
		{"\x04", CmdTurnOff},
		{"\x05", CmdCrashDismiss},
		{"\x06", CmdPartyOn},
		{"\x07", CmdNormal},
	}
	for _, tc := range cases {
		got, err := ParseCommand([]byte(tc.in))
		if err != nil {
			t.Fatalf("ParseCommand(%q) err=%v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCommand(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseCommand_LegacyFalseAlarmDismissesCrash(t *testing.T) {
	m := newTestMachine()
	m.Crash(0)
	c, err := ParseCommand([]byte{0x05})
	if err != nil {
		t.Fatalf("ParseCommand err=%v", err)
	}
	if !m.Apply(c) || m.Pattern() != Idle {
		t.Fatalf("pattern=%v want idle after legacy false alarm", m.Pattern())
	}
}

func TestParseCommand_Unknown(t *testing.T) {
	for _, in := range []string{"", "left_on", "\x00", "\x09", "BRAKE"} {
		if _, err := ParseCommand([]byte(in)); !errors.Is(err, ErrUnknownCommand) {
			t.Fatalf("ParseCommand(%q) err=%v want ErrUnknownCommand", in, err)
		}
	}
}

func TestMailbox_LatestWins(t *testing.T) {
	var mb Mailbox
	if _, ok := mb.Take(); ok {
		t.Fatalf("empty mailbox returned a command")
	}
	if mb.Post(CmdLeftOn) {
		t.Fatalf("first post reported a replacement")
	}
	if !mb.Post(CmdPartyOn) {
		t.Fatalf("second post did not report a replacement")
	}
	c, ok := mb.Take()
	if !ok || c != CmdPartyOn {
		t.Fatalf("Take=%v,%v want PARTY_ON,true", c, ok)
	}
	if _, ok := mb.Take(); ok {
		t.Fatalf("mailbox not cleared by Take")
	}
	if mb.Replaced() != 1 {
		t.Fatalf("Replaced=%d want 1", mb.Replaced())
	}
}

func TestMailbox_Deliver(t *testing.T) {
	var mb Mailbox
	if err := mb.Deliver([]byte("bogus")); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err=%v want ErrUnknownCommand", err)
	}
	if _, ok := mb.Take(); ok {
		t.Fatalf("invalid payload was posted")
	}
	if err := mb.Deliver([]byte("NORMAL")); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if c, _ := mb.Take(); c != CmdNormal {
		t.Fatalf("Take=%v want NORMAL", c)
	}
}

func TestMailbox_ConcurrentPosts(t *testing.T) {
	var mb Mailbox
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mb.Post(CmdLeftOn)
			}
		}()
	}
	wg.Wait()
	if c, ok := mb.Take(); !ok || c != CmdLeftOn {
		t.Fatalf("Take=%v,%v", c, ok)
	}
}
