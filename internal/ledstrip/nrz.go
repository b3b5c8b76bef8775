package ledstrip

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"luma/internal/actuation"
)

// nrz drives WS2812-class LEDs by shaping the NRZ waveform on SPI MOSI.
type nrz struct {
	port       spi.PortCloser
	dev        *nrzled.Dev
	brightness uint8
	count      int
	buf        []byte
}

func openNRZ(cfg Config) (Strip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ledstrip: periph host init: %w", err)
	}
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("ledstrip: open spi %q: %w", cfg.SPIPort, err)
	}
	opts := nrzled.DefaultOpts
	opts.NumPixels = cfg.Count
	opts.Channels = 3
	if cfg.FreqHz > 0 {
		opts.Freq = physic.Frequency(cfg.FreqHz) * physic.Hertz
	}
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("ledstrip: nrzled: %w", err)
	}
	return &nrz{
		port:       port,
		dev:        dev,
		brightness: clampBrightness(cfg.Brightness),
		count:      cfg.Count,
		buf:        make([]byte, 0, cfg.Count*3),
	}, nil
}

func (s *nrz) Show(f actuation.Frame) error {
	if len(f) > s.count {
		f = f[:s.count]
	}
	s.buf = AppendScaled(s.buf[:0], f, s.brightness)
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("ledstrip: write: %w", err)
	}
	return nil
}

func (s *nrz) Close() error {
	err := s.dev.Halt()
	if cerr := s.port.Close(); err == nil {
		err = cerr
	}
	return err
}
