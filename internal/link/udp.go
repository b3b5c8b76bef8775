package link

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"luma/internal/udp"
	"luma/internal/wire"
)

// udpPeerTimeout is how long a companion stays connected after its last
// valid datagram. Companions send an empty status frame as a keepalive.
var udpPeerTimeout = 5 * time.Second

// udpLink broadcasts frames to a fixed destination and listens for frames
// from the companion.
type udpLink struct {
	base
	cfg UDPConfig

	out      *udp.Broadcaster
	in       *udp.Listener
	lastSeen atomic.Int64
	cancel   context.CancelFunc
}

func newUDP(cfg Config, sink CommandSink) *udpLink {
	return &udpLink{base: newBase(cfg, sink), cfg: cfg.UDP}
}

func (l *udpLink) Start(ctx context.Context) error {
	out, err := udp.NewBroadcaster(l.cfg.Dest)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	in, err := udp.Listen(l.cfg.Listen)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("link: %w", err)
	}
	l.out, l.in = out, in

	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		if err := in.Serve(ctx, l.handle); err != nil {
			log.Printf("link: udp: %v", err)
		}
	}()
	go l.watch(ctx)
	go l.pump(ctx, "udp", func(m message) error { return l.out.SendFrame(m.topic, m.payload) })
	log.Printf("link: udp sending to %s, listening on %s", l.cfg.Dest, in.Addr())
	return nil
}

func (l *udpLink) handle(topic wire.Topic, payload []byte, from *net.UDPAddr) {
	l.lastSeen.Store(time.Now().UnixNano())
	if !l.Connected() {
		l.setConnected(true)
		log.Printf("link: udp companion %s connected", from)
	}
	if topic == wire.TopicCommand {
		l.deliver(payload)
	}
}

// watch expires the companion once it goes quiet.
func (l *udpLink) watch(ctx context.Context) {
	t := time.NewTicker(udpPeerTimeout / 5)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !l.Connected() {
				continue
			}
			last := time.Unix(0, l.lastSeen.Load())
			if time.Since(last) > udpPeerTimeout {
				l.setConnected(false)
				log.Printf("link: udp companion timed out")
			}
		}
	}
}

func (l *udpLink) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	l.setConnected(false)
	if l.in != nil {
		// Serve closes the socket on cancel as well.
		_ = l.in.Close()
	}
	if l.out != nil {
		return l.out.Close()
	}
	return nil
}
