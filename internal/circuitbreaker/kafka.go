// v0
// internal/circuitbreaker/kafka.go
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// messageWriter mirrors the subset of kafka.Writer the wrapper needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaWriter wraps a kafka.Writer with breaker protection so a broker
// outage degrades to fast-fails instead of stalling the caller.
type KafkaWriter struct {
	writer messageWriter
	brk    *Breaker
}

func NewKafkaWriter(name string, cfg Config, writer messageWriter, lg *slog.Logger) *KafkaWriter {
	return &KafkaWriter{writer: writer, brk: New(name, cfg, nil, lg)}
}

func (w *KafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w == nil || w.writer == nil {
		return errors.New("nil kafka writer")
	}
	return w.brk.Execute(ctx, func(ctx context.Context) error {
		return w.writer.WriteMessages(ctx, msgs...)
	})
}

func (w *KafkaWriter) State() State { return w.brk.State() }
