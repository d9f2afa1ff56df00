// v1
// internal/mqttio/mqttio.go
package mqttio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// pahoClient is the subset of mqtt.Client the publisher uses.
type pahoClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher mirrors each polled reading and each spoken announcement
// onto MQTT topics so dashboards and other rooms can subscribe.
type Publisher struct {
	client       pahoClient
	readingTopic string
	speechTopic  string
	lg           *slog.Logger
}

type Config struct {
	BrokerAddr   string
	ClientID     string
	ReadingTopic string
	SpeechTopic  string
}

func Connect(cfg Config, lg *slog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerAddr).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.BrokerAddr, token.Error())
	}
	lg.Info("mqtt connected", "broker", cfg.BrokerAddr, "clientID", cfg.ClientID)
	return &Publisher{
		client:       c,
		readingTopic: cfg.ReadingTopic,
		speechTopic:  cfg.SpeechTopic,
		lg:           lg,
	}, nil
}

// PublishReading mirrors one telemetry sample. Failures are logged and
// dropped; the engine loop never blocks on the broker.
func (p *Publisher) PublishReading(r telemetry.Reading) {
	if p == nil || !p.client.IsConnected() {
		return
	}
	payload, err := json.Marshal(r)
	if err != nil {
		p.lg.Warn("reading marshal failed", "error", err)
		return
	}
	token := p.client.Publish(p.readingTopic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		p.lg.Warn("reading publish failed", "topic", p.readingTopic, "error", token.Error())
	}
}

// Announce satisfies the speech Announcer interface by mirroring the
// text onto the speech topic. A separate subscriber renders audio.
func (p *Publisher) Announce(_ context.Context, text string) {
	if p == nil || !p.client.IsConnected() {
		return
	}
	token := p.client.Publish(p.speechTopic, 0, false, []byte(text))
	token.Wait()
	if token.Error() != nil {
		p.lg.Warn("speech publish failed", "topic", p.speechTopic, "error", token.Error())
	}
}

func (p *Publisher) Close() {
	if p != nil {
		p.client.Disconnect(250)
	}
}
