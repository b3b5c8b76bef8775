// Package link connects the device to its companion app. Every transport
// exposes the same small surface: outbound notifications on named topics
// and inbound command tokens handed to a CommandSink.
package link

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"luma/internal/actuation"
	"luma/internal/wire"
)

// Link is one companion transport. Notify never blocks; it drops the
// message when no companion is connected.
type Link interface {
	Start(ctx context.Context) error
	Notify(topic wire.Topic, payload []byte)
	Connected() bool
	Close() error
}

// CommandSink accepts raw inbound command payloads. It is called from
// transport goroutines.
type CommandSink interface {
	Deliver(p []byte) error
}

type Config struct {
	Transport string
	DeviceID  string
	QueueSize int

	MQTT   MQTTConfig
	WS     WSConfig
	Serial SerialConfig
	UDP    UDPConfig
}

type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	Username    string
	Password    string
	QoS         byte
}

type WSConfig struct {
	Listen string
	Path   string
}

type SerialConfig struct {
	Port string
	Baud int
}

type UDPConfig struct {
	Dest   string
	Listen string
}

// New builds the transport named by cfg.Transport. An empty DeviceID is
// replaced by a random one.
func New(cfg Config, sink CommandSink) (Link, error) {
	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	switch cfg.Transport {
	case "", "none":
		return None{}, nil
	case "mqtt":
		return newMQTT(cfg, sink), nil
	case "ws":
		return newWS(cfg, sink), nil
	case "serial":
		return newSerial(cfg, sink), nil
	case "udp":
		return newUDP(cfg, sink), nil
	default:
		return nil, fmt.Errorf("link: unknown transport %q", cfg.Transport)
	}
}

// None is the transport for a device with no companion.
type None struct{}

func (None) Start(context.Context) error { return nil }
func (None) Notify(wire.Topic, []byte)   {}
func (None) Connected() bool             { return false }
func (None) Close() error                { return nil }

const maxLoggedTokens = 32

// base carries the pieces every transport shares: the outbound queue,
// the connected flag and command delivery.
type base struct {
	q         *queue
	sink      CommandSink
	connected atomic.Bool
	sendErrs  atomic.Uint64

	mu     sync.Mutex
	logged map[string]struct{}
}

func newBase(cfg Config, sink CommandSink) base {
	return base{q: newQueue(cfg.QueueSize), sink: sink, logged: make(map[string]struct{})}
}

func (b *base) Notify(topic wire.Topic, payload []byte) {
	if !b.connected.Load() {
		return
	}
	b.q.push(message{topic: topic, payload: append([]byte(nil), payload...)})
}

func (b *base) Connected() bool { return b.connected.Load() }

// Dropped counts outbound messages displaced by newer ones.
func (b *base) Dropped() uint64 { return b.q.dropped.Load() }

// setConnected records a link edge. Queued messages are discarded on
// disconnect so a new companion never sees stale telemetry.
func (b *base) setConnected(up bool) {
	b.connected.Store(up)
	if !up {
		b.q.reset()
	}
}

func (b *base) deliver(p []byte) {
	if b.sink == nil {
		return
	}
	err := b.sink.Deliver(p)
	if err == nil {
		return
	}
	if !errors.Is(err, actuation.ErrUnknownCommand) {
		log.Printf("link: command: %v", err)
		return
	}
	key := string(p)
	b.mu.Lock()
	_, seen := b.logged[key]
	if !seen && len(b.logged) < maxLoggedTokens {
		b.logged[key] = struct{}{}
	}
	b.mu.Unlock()
	if !seen {
		log.Printf("link: ignoring %v", err)
	}
}

// pump drains the queue through send until ctx is done.
func (b *base) pump(ctx context.Context, name string, send func(message) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.q.signal:
		}
		for {
			m, ok := b.q.pop()
			if !ok {
				break
			}
			if err := send(m); err != nil {
				n := b.sendErrs.Add(1)
				if n == 1 || n%100 == 0 {
					log.Printf("link: %s send %s failed (%d total): %v", name, m.topic, n, err)
				}
			}
		}
	}
}
