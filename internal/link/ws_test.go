package link

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"luma/internal/actuation"
	"luma/internal/wire"
)

func startWS(t *testing.T, sink CommandSink) *wsLink {
	t.Helper()
	l := newWS(Config{QueueSize: 8, WS: WSConfig{Listen: "127.0.0.1:0", Path: "/ws"}}, sink)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = l.Close()
	})
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return l
}

func dialWS(t *testing.T, l *wsLink) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+l.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWS_NotifyAndCommand(t *testing.T) {
	sink := &recordSink{}
	l := startWS(t, sink)
	if l.Connected() {
		t.Fatalf("connected before any client")
	}
	conn := dialWS(t, l)
	waitFor(t, "client connect", l.Connected)

	l.Notify(wire.TopicEvent, []byte{0x02, 0, 0, 0x80, 0x3F})
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	mt, p, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("message type=%d want binary", mt)
	}
	if len(p) != 6 || wire.Topic(p[0]) != wire.TopicEvent || p[1] != 0x02 {
		t.Fatalf("frame=%x", p)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("PARTY_ON")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x04}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "commands", func() bool { return len(sink.commands()) == 2 })
	got := sink.commands()
	if got[0] != actuation.CmdPartyOn || got[1] != actuation.CmdTurnOff {
		t.Fatalf("commands=%v", got)
	}
}

func TestWS_DisconnectClearsConnected(t *testing.T) {
	l := startWS(t, nil)
	conn := dialWS(t, l)
	waitFor(t, "client connect", l.Connected)
	_ = conn.Close()
	waitFor(t, "client disconnect", func() bool { return !l.Connected() })
}

func TestWS_NewClientReplacesOld(t *testing.T) {
	l := startWS(t, nil)
	first := dialWS(t, l)
	waitFor(t, "first connect", l.Connected)
	second := dialWS(t, l)

	_ = first.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := first.ReadMessage(); err == nil {
		t.Fatalf("first client should be closed")
	}
	if !l.Connected() {
		t.Fatalf("replacement client should keep link connected")
	}

	l.Notify(wire.TopicAlert, []byte{wire.AlertCrashUnconfirmed})
	_ = second.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, p, err := second.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if wire.Topic(p[0]) != wire.TopicAlert {
		t.Fatalf("topic=%v want alert", wire.Topic(p[0]))
	}
}
