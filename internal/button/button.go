// Package button turns presses of the dismiss push-button into
// CRASH_DISMISS commands.
package button

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"luma/internal/actuation"
)

type Config struct {
	Enable bool
	// Chip is a gpiochip name or path, e.g. "gpiochip0".
	Chip string
	// Line is the line offset on Chip. The button pulls it low.
	Line     int
	Debounce time.Duration
}

// Poster receives commands. *actuation.Mailbox satisfies it.
type Poster interface {
	Post(c actuation.Command) bool
}

// openLineFn requests the input line and calls onPress with the kernel event
// timestamp of every falling edge.
var openLineFn = openLine

type Button struct {
	cfg  Config
	post Poster
	line io.Closer

	mu      sync.Mutex
	last    time.Duration
	pressed bool

	presses atomic.Uint64
	ignored atomic.Uint64
}

// Open starts watching the configured line. A disabled button is returned
// as nil with no error.
func Open(cfg Config, post Poster) (*Button, error) {
	if !cfg.Enable {
		return nil, nil
	}
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	b := &Button{cfg: cfg, post: post}
	line, err := openLineFn(cfg.Chip, cfg.Line, b.press)
	if err != nil {
		return nil, fmt.Errorf("button: %s line %d: %w", cfg.Chip, cfg.Line, err)
	}
	b.line = line
	log.Printf("button: watching %s line %d", cfg.Chip, cfg.Line)
	return b, nil
}

func (b *Button) press(ts time.Duration) {
	b.mu.Lock()
	bounce := b.pressed && ts-b.last < b.cfg.Debounce
	if !bounce {
		b.last, b.pressed = ts, true
	}
	b.mu.Unlock()

	if bounce {
		b.ignored.Add(1)
		return
	}
	b.presses.Add(1)
	b.post.Post(actuation.CmdCrashDismiss)
}

// Presses counts accepted presses.
func (b *Button) Presses() uint64 { return b.presses.Load() }

// Ignored counts edges rejected as bounce.
func (b *Button) Ignored() uint64 { return b.ignored.Load() }

func (b *Button) Close() error {
	if b == nil || b.line == nil {
		return nil
	}
	err := b.line.Close()
	b.line = nil
	return err
}
