package link

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"luma/internal/wire"
)

const mqttPublishTimeout = 2 * time.Second

// mqttLink publishes on <prefix>/<device>/<topic> and takes commands from
// <prefix>/<device>/command. Connected follows the broker session.
type mqttLink struct {
	base
	cfg      MQTTConfig
	deviceID string
	client   mqtt.Client
	cancel   context.CancelFunc
}

func newMQTT(cfg Config, sink CommandSink) *mqttLink {
	l := &mqttLink{base: newBase(cfg, sink), cfg: cfg.MQTT, deviceID: cfg.DeviceID}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(clientID(cfg.DeviceID)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetOnConnectHandler(l.onConnect).
		SetConnectionLostHandler(l.onLost)
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	l.client = mqtt.NewClient(opts)
	return l
}

func clientID(deviceID string) string {
	if len(deviceID) > 16 {
		deviceID = deviceID[:16]
	}
	return "luma-" + deviceID
}

func topicPath(prefix, deviceID string, t wire.Topic) string {
	return prefix + "/" + deviceID + "/" + t.String()
}

func (l *mqttLink) Start(ctx context.Context) error {
	ctx, l.cancel = context.WithCancel(ctx)
	// With ConnectRetry the token completes only once a session is up; the
	// control loop must not wait on it.
	l.client.Connect()
	go l.pump(ctx, "mqtt", l.publish)
	return nil
}

func (l *mqttLink) onConnect(c mqtt.Client) {
	topic := topicPath(l.cfg.TopicPrefix, l.deviceID, wire.TopicCommand)
	token := c.Subscribe(topic, l.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		l.deliver(msg.Payload())
	})
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("link: mqtt subscribe %s: %v", topic, token.Error())
	}
	l.setConnected(true)
	log.Printf("link: mqtt connected to %s as %s", l.cfg.Broker, l.deviceID)
}

func (l *mqttLink) onLost(_ mqtt.Client, err error) {
	l.setConnected(false)
	log.Printf("link: mqtt connection lost: %v", err)
}

func (l *mqttLink) publish(m message) error {
	token := l.client.Publish(topicPath(l.cfg.TopicPrefix, l.deviceID, m.topic), l.cfg.QoS, false, m.payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish timed out after %s", mqttPublishTimeout)
	}
	return token.Error()
}

func (l *mqttLink) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	l.setConnected(false)
	l.client.Disconnect(250)
	return nil
}
