package link

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = time.Second

// wsLink serves one companion over WebSocket. Outbound messages are binary
// frames of [topic][payload]; inbound text or binary messages are command
// tokens. A new client replaces the previous one.
type wsLink struct {
	base
	cfg      WSConfig
	upgrader websocket.Upgrader

	srv *http.Server
	ln  net.Listener

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

func newWS(cfg Config, sink CommandSink) *wsLink {
	return &wsLink{
		base: newBase(cfg, sink),
		cfg:  cfg.WS,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (l *wsLink) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Listen)
	if err != nil {
		return fmt.Errorf("link: ws listen %s: %w", l.cfg.Listen, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(l.cfg.Path, l.handle)
	l.ln = ln
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("link: ws serve: %v", err)
		}
	}()
	go l.pump(ctx, "ws", l.write)
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	log.Printf("link: ws listening on %s%s", ln.Addr(), l.cfg.Path)
	return nil
}

// Addr is the bound listen address once started.
func (l *wsLink) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

func (l *wsLink) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("link: ws upgrade: %v", err)
		return
	}

	l.mu.Lock()
	old := l.conn
	l.conn = conn
	l.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	l.setConnected(true)
	log.Printf("link: ws client %s connected", r.RemoteAddr)

	for {
		mt, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("link: ws read: %v", err)
			}
			break
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			l.deliver(p)
		}
	}

	l.mu.Lock()
	current := l.conn == conn
	if current {
		l.conn = nil
	}
	l.mu.Unlock()
	if current {
		l.setConnected(false)
		log.Printf("link: ws client %s disconnected", r.RemoteAddr)
	}
	_ = conn.Close()
}

func (l *wsLink) write(m message) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return nil
	}
	frame := make([]byte, 0, 1+len(m.payload))
	frame = append(frame, byte(m.topic))
	frame = append(frame, m.payload...)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (l *wsLink) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	l.setConnected(false)
	if l.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
