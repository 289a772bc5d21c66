package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rebanho/ledger/internal/canonicalization"
	"github.com/rebanho/ledger/internal/ledger"
)

// MovementPublisher is notified, fire-and-forget, after a movement commits.
// A publisher failure is logged but never rolls back the already-committed
// transaction — the ledger row is the source of truth regardless of whether
// downstream systems heard about it.
type MovementPublisher interface {
	Publish(ctx context.Context, balanceKey string, movement *ledger.AnimalMovement)
}

// NoopPublisher discards every movement. Used when no outbox topic is
// configured.
type NoopPublisher struct{}

// Publish implements MovementPublisher.
func (NoopPublisher) Publish(context.Context, string, *ledger.AnimalMovement) {}

// movementEnvelope is the JSON payload written to the outbox topic.
type movementEnvelope struct {
	IdempotencyKey string          `json:"idempotency_key"`
	BalanceKey     string          `json:"balance_key"`
	MovementID     string          `json:"movement_id"`
	MovementType   string          `json:"movement_type"`
	OperationType  string          `json:"operation_type"`
	Quantity       int             `json:"quantity"`
	Timestamp      time.Time       `json:"timestamp"`
	Metadata       ledger.Metadata `json:"metadata,omitempty"`
}

// messageWriter is the subset of *kafka.Writer the publisher depends on,
// narrowed to an interface so unit tests can inject an in-memory fake
// instead of dialing a real broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMovementPublisher publishes every committed movement to a Kafka topic
// for downstream consumers (analytics, external audit trails). The ledger
// itself never depends on Kafka being reachable.
type KafkaMovementPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaMovementPublisher constructs a publisher writing to the given
// broker/topic with at-least-once semantics (RequireOne acks).
func NewKafkaMovementPublisher(brokers []string, topic string) *KafkaMovementPublisher {
	return &KafkaMovementPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// Publish implements MovementPublisher. Errors are logged, never returned:
// the caller has already committed the ledger write.
func (p *KafkaMovementPublisher) Publish(ctx context.Context, balanceKey string, movement *ledger.AnimalMovement) {
	key := canonicalization.GenerateMovementIdempotencyKey(movement.ID, balanceKey, string(movement.OperationType))

	envelope := movementEnvelope{
		IdempotencyKey: key,
		BalanceKey:     balanceKey,
		MovementID:     movement.ID,
		MovementType:   string(movement.MovementType),
		OperationType:  string(movement.OperationType),
		Quantity:       movement.Quantity,
		Timestamp:      movement.Timestamp,
		Metadata:       movement.Metadata,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("failed to marshal movement envelope",
			slog.String("movement_id", movement.ID), slog.String("error", err.Error()))

		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
	})
	if err != nil {
		p.logger.Error("failed to publish movement",
			slog.String("movement_id", movement.ID), slog.String("error", err.Error()))
	}
}

// Close flushes and closes the underlying Kafka writer.
func (p *KafkaMovementPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}

	return nil
}
