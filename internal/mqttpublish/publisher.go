// Package mqttpublish is an optional MQTT publisher of reactor/timer
// lifecycle events, for a companion overlay app to subscribe to instead of
// embedding any rendering in this process. Connect/reconnect handling is
// adapted from the teacher's subscribing mqttclient.Client to a publishing
// client: same broker options and auto-reconnect shape, opposite direction
// of data flow.
package mqttpublish

import (
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Publisher holds a connected MQTT client that publishes every event to a
// single configured topic.
type Publisher struct {
	conn      mqtt.Client
	topic     string
	connected atomic.Bool
	log       zerolog.Logger
}

// Options configures Connect.
type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
	Log       zerolog.Logger
}

// Connect dials the broker and blocks until the connection succeeds or
// fails outright; subsequent reconnects are automatic and don't block.
func Connect(opts Options) (*Publisher, error) {
	p := &Publisher{topic: opts.Topic, log: opts.Log}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	p.conn = mqtt.NewClient(clientOpts)
	token := p.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Publisher) onConnect(mqtt.Client) {
	p.connected.Store(true)
	p.log.Info().Str("topic", p.topic).Msg("mqtt publisher connected")
}

func (p *Publisher) onConnectionLost(_ mqtt.Client, err error) {
	p.connected.Store(false)
	p.log.Warn().Err(err).Msg("mqtt publisher connection lost, will auto-reconnect")
}

// IsConnected reports the current connection state, for health checks.
func (p *Publisher) IsConnected() bool {
	return p.connected.Load()
}

// publish sends payload to the configured topic at QoS 0, unretained, and
// logs failures without returning them: losing an overlay notification is
// never grounds to slow or fail the reactor.
func (p *Publisher) publish(payload []byte) {
	token := p.conn.Publish(p.topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			p.log.Error().Err(err).Msg("mqtt publish failed")
		}
	}()
}

// Close disconnects the client, waiting up to 1s for in-flight publishes.
func (p *Publisher) Close() {
	p.log.Info().Msg("disconnecting mqtt publisher")
	p.conn.Disconnect(1000)
}
