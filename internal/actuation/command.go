package actuation

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrUnknownCommand is returned for payloads that match no command token.
var ErrUnknownCommand = errors.New("actuation: unknown command")

// Command is a lighting request received from the companion device.
type Command uint8

const (
	CmdNone Command = iota
	CmdLeftOn
	CmdRightOn
	CmdTurnOff
	CmdPartyOn
	CmdPartyOff
	CmdCrashDismiss
	CmdNormal
	CmdLightsOff
)

var commandTokens = map[string]Command{
	"LEFT_ON":       CmdLeftOn,
	"RIGHT_ON":      CmdRightOn,
	"TURN_OFF":      CmdTurnOff,
	"PARTY_ON":      CmdPartyOn,
	"PARTY_OFF":     CmdPartyOff,
	"CRASH_DISMISS": CmdCrashDismiss,
	"NORMAL":        CmdNormal,
	"OFF":           CmdLightsOff,
}

// Single-byte codes sent by older companion builds.
var legacyCodes = [...]Command{
	0x01: CmdLeftOn,
	0x02: CmdTurnOff,
	0x03: CmdRightOn,
	0x04: CmdTurnOff,
	0x05: CmdCrashDismiss,
	0x06: CmdPartyOn,
	0x07: CmdNormal,
}

func (c Command) String() string {
	for tok, v := range commandTokens {
		if v == c {
			return tok
		}
	}
	if c == CmdNone {
		return "NONE"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// ParseCommand decodes a command payload. Text tokens may carry surrounding
// whitespace or a trailing NUL.
func ParseCommand(p []byte) (Command, error) {
	if len(p) == 1 && int(p[0]) < len(legacyCodes) && legacyCodes[p[0]] != CmdNone {
		return legacyCodes[p[0]], nil
	}
	tok := bytes.TrimSpace(bytes.TrimRight(p, "\x00"))
	if c, ok := commandTokens[string(tok)]; ok {
		return c, nil
	}
	return CmdNone, fmt.Errorf("%w: %q", ErrUnknownCommand, tok)
}

// Mailbox hands commands from transport goroutines to the control loop.
// It holds one command; a newer command replaces an unread one.
type Mailbox struct {
	slot     atomic.Uint32
	replaced atomic.Uint64
}

// Post stores c. It reports whether an unread command was overwritten.
func (m *Mailbox) Post(c Command) bool {
	if c == CmdNone {
		return false
	}
	if Command(m.slot.Swap(uint32(c))) != CmdNone {
		m.replaced.Add(1)
		return true
	}
	return false
}

// Deliver parses a raw payload and posts it.
func (m *Mailbox) Deliver(p []byte) error {
	c, err := ParseCommand(p)
	if err != nil {
		return err
	}
	m.Post(c)
	return nil
}

// Take returns and clears the pending command.
func (m *Mailbox) Take() (Command, bool) {
	c := Command(m.slot.Swap(uint32(CmdNone)))
	return c, c != CmdNone
}

// Replaced counts commands that were overwritten before being read.
func (m *Mailbox) Replaced() uint64 { return m.replaced.Load() }
