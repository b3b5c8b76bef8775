// Package ledstrip pushes actuation frames to an addressable LED strip.
package ledstrip

import (
	"fmt"
	"sync/atomic"

	"luma/internal/actuation"
)

// Strip shows one full frame at a time. Show must not retain f.
type Strip interface {
	Show(f actuation.Frame) error
	Close() error
}

type Config struct {
	Driver     string
	Count      int
	SPIPort    string
	FreqHz     int64
	Brightness int
}

// Open returns the strip named by cfg.Driver.
func Open(cfg Config) (Strip, error) {
	switch cfg.Driver {
	case "none", "":
		return &None{}, nil
	case "nrzled":
		return openNRZ(cfg)
	default:
		return nil, fmt.Errorf("ledstrip: unknown driver %q", cfg.Driver)
	}
}

// AppendScaled appends f as packed RGB bytes scaled by brightness/255.
func AppendScaled(dst []byte, f actuation.Frame, brightness uint8) []byte {
	for _, c := range f {
		dst = append(dst, scale(c.R, brightness), scale(c.G, brightness), scale(c.B, brightness))
	}
	return dst
}

func scale(v, brightness uint8) uint8 {
	if brightness == 255 {
		return v
	}
	return uint8((uint16(v)*uint16(brightness) + 127) / 255)
}

func clampBrightness(b int) uint8 {
	switch {
	case b <= 0:
		return 0
	case b >= 255:
		return 255
	default:
		return uint8(b)
	}
}

// None discards frames. It counts them so a headless run can still be observed.
type None struct {
	shown atomic.Uint64
}

func (n *None) Show(actuation.Frame) error {
	n.shown.Add(1)
	return nil
}

func (n *None) Shown() uint64 { return n.shown.Load() }

func (n *None) Close() error { return nil }
