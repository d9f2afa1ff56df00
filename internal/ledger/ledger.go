// v1
// internal/ledger/ledger.go
package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Trylen22/iris-companion/internal/circuitbreaker"
)

// Event kinds recorded by the engine.
const (
	KindEmergency    = "emergency"
	KindAlert        = "alert"
	KindIntervention = "intervention"
	KindAction       = "action"
	KindSession      = "session"
)

// Event is one durable record of something the companion did or saw.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives events. Implementations must tolerate being called
// from the engine loop; failures are the sink's problem to report.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// KafkaSink publishes events to a single topic keyed by kind, behind
// a circuit breaker so a broker outage cannot stall the engine.
type KafkaSink struct {
	writer *circuitbreaker.KafkaWriter
	lg     *slog.Logger
	now    func() time.Time
}

func NewKafkaSink(brokers []string, topic string, lg *slog.Logger) *KafkaSink {
	raw := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	cfg := circuitbreaker.Config{MaxFailures: 3, ResetTimeout: 15 * time.Second}
	return &KafkaSink{
		writer: circuitbreaker.NewKafkaWriter("ledger", cfg, raw, lg),
		lg:     lg,
		now:    time.Now,
	}
}

func (s *KafkaSink) Record(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Kind), Value: payload})
	if err != nil {
		s.lg.Warn("ledger write failed", "kind", ev.Kind, "label", ev.Label, "error", err)
	}
	return err
}

// BreakerState exposes the writer's breaker for the metrics gauge.
func (s *KafkaSink) BreakerState() circuitbreaker.State { return s.writer.State() }

// NoopSink drops events. Used when no brokers are configured.
type NoopSink struct{}

func (NoopSink) Record(context.Context, Event) error { return nil }
