package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"civicdesk/internal/bootstrap/logging"
	"civicdesk/internal/errs"
	"civicdesk/internal/ports"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards committed complaint events to a Kafka topic.
// Messages are keyed by tracking code so one complaint stays on one partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

var _ ports.ComplaintEventHandler = (*KafkaPublisher)(nil)

type complaintEventMessage struct {
	Kind         string  `json:"kind"`
	ComplaintID  uint64  `json:"complaint_id"`
	TrackingCode string  `json:"tracking_code"`
	Anonymous    bool    `json:"anonymous"`
	From         string  `json:"from,omitempty"`
	To           string  `json:"to"`
	Actor        *string `json:"actor,omitempty"`
	Observation  string  `json:"observation,omitempty"`
	OccurredAt   string  `json:"occurred_at"`
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, topic, timeout), nil
}

func newKafkaPublisher(writer messageWriter, topic string, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic, timeout: timeout}
}

func (p *KafkaPublisher) Name() string {
	return "kafka"
}

func (p *KafkaPublisher) HandleComplaintEvent(ctx context.Context, event ports.ComplaintEvent) error {
	payload, err := json.Marshal(complaintEventMessage{
		Kind:         string(event.Kind),
		ComplaintID:  event.ComplaintID,
		TrackingCode: event.TrackingCode,
		Anonymous:    event.Owner.IsAnonymous(),
		From:         string(event.From),
		To:           string(event.To),
		Actor:        event.Actor,
		Observation:  event.Observation,
		OccurredAt:   event.OccurredAt,
	})
	if err != nil {
		return errs.Wrap(err, "marshal complaint event")
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.TrackingCode),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_kind", Value: []byte(event.Kind)},
			{Key: "complaint_id", Value: []byte(strconv.FormatUint(event.ComplaintID, 10))},
		},
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return errs.Wrapf(err, "publish complaint event to %s", p.topic)
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "events.kafka")),
		"complaint event published",
		slog.String("topic", p.topic),
		slog.String("tracking_code", event.TrackingCode),
		slog.String("event_kind", string(event.Kind)),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
