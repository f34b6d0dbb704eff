// Package bus publishes notable flood events to Kafka for downstream
// consumers (alerting pipelines, dashboards). The bus is optional: the
// service runs fine with no brokers configured.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rafaelq/floodwatch/internal/flood"
)

// Publisher produces notable-event messages to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the notable-events topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishEvents serializes and publishes one cycle's notable events in
// a single WriteMessages call, keyed by snapshot id.
func (p *Publisher) PublishEvents(ctx context.Context, snapshotID string, events []flood.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeEvent(snapshotID, events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	p.logger.Debug("published notable events", "count", len(events), "snapshot_id", snapshotID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// eventMessage is the wire shape downstream consumers decode.
type eventMessage struct {
	SnapshotID string    `json:"snapshot_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Tag        string    `json:"tag"`
	Message    string    `json:"message"`
}

// serializeEvent marshals one notable event into a Kafka message.
func serializeEvent(snapshotID string, ev flood.Event) (kafkago.Message, error) {
	data, err := json.Marshal(eventMessage{
		SnapshotID: snapshotID,
		OccurredAt: ev.OccurredAt,
		Tag:        ev.Tag,
		Message:    ev.Message,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshotID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tag", Value: []byte(ev.Tag)},
			{Key: "occurred_at", Value: []byte(ev.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
