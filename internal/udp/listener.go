package udp

import (
	"context"
	"errors"
	"fmt"
	"net"

	"luma/internal/wire"
)

// Handler receives every datagram that unframes with a valid checksum.
type Handler func(topic wire.Topic, payload []byte, from *net.UDPAddr)

type Listener struct {
	conn *net.UDPConn
}

func Listen(addr string) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve listen: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("udp: listen: %w", err)
	}
	return &Listener{conn: conn}, nil
}

func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Serve reads until ctx is done or the listener is closed. Malformed
// datagrams are dropped.
func (l *Listener) Serve(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()

	buf := make([]byte, 1500)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("udp: read: %w", err)
		}
		topic, payload, ok, ferr := wire.Unframe(buf[:n])
		if ferr != nil || !ok {
			continue
		}
		h(topic, append([]byte(nil), payload...), from)
	}
}

func (l *Listener) Close() error { return l.conn.Close() }
