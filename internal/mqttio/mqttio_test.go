// v0
// internal/mqttio/mqttio_test.go
package mqttio

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Trylen22/iris-companion/internal/telemetry"
)

type published struct {
	topic   string
	payload []byte
}

type fakeMQTT struct {
	connected bool
	msgs      []published
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

func (f *fakeMQTT) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	f.msgs = append(f.msgs, published{topic: topic, payload: payload.([]byte)})
	return doneToken{}
}
func (f *fakeMQTT) IsConnected() bool { return f.connected }
func (f *fakeMQTT) Disconnect(uint) {}

func testPublisher(c pahoClient) *Publisher {
	return &Publisher{
		client:       c,
		readingTopic: "iris/readings",
		speechTopic:  "iris/speech",
		lg:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPublishReadingMirrorsJSON(t *testing.T) {
	f := &fakeMQTT{connected: true}
	p := testPublisher(f)

	r := telemetry.Reading{TemperatureF: 72.5, HasTemperature: true, CO2: 640, HasCO2: true}
	p.PublishReading(r)

	if len(f.msgs) != 1 {
		t.Fatalf("published %d messages", len(f.msgs))
	}
	if f.msgs[0].topic != "iris/readings" {
		t.Fatalf("topic: %s", f.msgs[0].topic)
	}
	var got telemetry.Reading
	if err := json.Unmarshal(f.msgs[0].payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.TemperatureF != 72.5 || got.CO2 != 640 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestAnnouncePublishesText(t *testing.T) {
	f := &fakeMQTT{connected: true}
	p := testPublisher(f)

	p.Announce(context.Background(), "Taking a break sounds good.")
	if len(f.msgs) != 1 || f.msgs[0].topic != "iris/speech" {
		t.Fatalf("unexpected publishes: %+v", f.msgs)
	}
	if string(f.msgs[0].payload) != "Taking a break sounds good." {
		t.Fatalf("payload: %s", f.msgs[0].payload)
	}
}

func TestDisconnectedClientDropsSilently(t *testing.T) {
	f := &fakeMQTT{connected: false}
	p := testPublisher(f)

	p.PublishReading(telemetry.Reading{HasTemperature: true, TemperatureF: 70})
	p.Announce(context.Background(), "hello")
	if len(f.msgs) != 0 {
		t.Fatalf("published while disconnected: %+v", f.msgs)
	}
}
