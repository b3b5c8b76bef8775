package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"

	"luma/internal/wire"
)

// serialLink talks to a BLE-UART bridge module. Both directions carry
// wire frames; inbound command frames are delivered to the sink. The link
// counts as connected while the port is open.
type serialLink struct {
	base
	cfg SerialConfig

	mu     sync.Mutex
	port   io.ReadWriteCloser
	cancel context.CancelFunc
}

var openSerial = func(path string, baud int) (io.ReadWriteCloser, error) {
	return serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

var serialRetry = time.Second

func newSerial(cfg Config, sink CommandSink) *serialLink {
	return &serialLink{base: newBase(cfg, sink), cfg: cfg.Serial}
}

func (l *serialLink) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
	go l.pump(ctx, "serial", l.write)
	return nil
}

func (l *serialLink) run(ctx context.Context) {
	failures := 0
	for ctx.Err() == nil {
		port, err := openSerial(l.cfg.Port, l.cfg.Baud)
		if err != nil {
			failures++
			if failures == 1 || failures%60 == 0 {
				log.Printf("link: serial open %s (attempt %d): %v", l.cfg.Port, failures, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(serialRetry):
			}
			continue
		}
		failures = 0
		l.mu.Lock()
		l.port = port
		l.mu.Unlock()
		l.setConnected(true)
		log.Printf("link: serial %s open at %d baud", l.cfg.Port, l.cfg.Baud)

		stop := context.AfterFunc(ctx, func() { _ = port.Close() })
		err = l.read(port)
		stop()

		l.mu.Lock()
		l.port = nil
		l.mu.Unlock()
		l.setConnected(false)
		_ = port.Close()
		if ctx.Err() == nil {
			log.Printf("link: serial %s closed: %v", l.cfg.Port, err)
		}
	}
}

func (l *serialLink) read(r io.Reader) error {
	split := wire.NewSplitter(256)
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		for _, f := range split.Write(buf[:n]) {
			topic, payload, ok, ferr := wire.Unframe(f)
			if ferr != nil || !ok {
				continue
			}
			if topic == wire.TopicCommand {
				l.deliver(payload)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (l *serialLink) write(m message) error {
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()
	if port == nil {
		return nil
	}
	if _, err := port.Write(wire.Frame(m.topic, m.payload)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (l *serialLink) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()
	if port != nil {
		return port.Close()
	}
	return nil
}
