package repository

import (
	"context"
	"time"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	pkgkafka "FXRisk/pkg/kafka"

	"github.com/google/uuid"
)

// messageProducer is the subset of pkg/kafka.Producer the publisher needs.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers map[string]string) error
	Close() error
}

// ResultEnvelope wraps a computed table on the result topics.
type ResultEnvelope struct {
	ID          string      `json:"id"`
	RequestID   string      `json:"request_id,omitempty"`
	Kind        string      `json:"kind"`
	Pair        string      `json:"pair"`
	GeneratedAt time.Time   `json:"generated_at"`
	Result      interface{} `json:"result"`
}

// KafkaResultPublisher publishes risk cones and big moves keyed by pair so
// results for one pair stay ordered within a partition.
type KafkaResultPublisher struct {
	p             messageProducer
	riskConeTopic string
	bigMovesTopic string
	now           func() time.Time
}

func NewKafkaResultPublisher(p *pkgkafka.Producer, riskConeTopic, bigMovesTopic string) *KafkaResultPublisher {
	return newKafkaResultPublisher(p, riskConeTopic, bigMovesTopic)
}

func newKafkaResultPublisher(p messageProducer, riskConeTopic, bigMovesTopic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{p: p, riskConeTopic: riskConeTopic, bigMovesTopic: bigMovesTopic, now: time.Now}
}

func (k *KafkaResultPublisher) PublishRiskCone(ctx context.Context, requestID string, t *models.RiskConeTable) error {
	return k.publish(ctx, k.riskConeTopic, requestID, models.KindRiskCone, t.Pair, t)
}

func (k *KafkaResultPublisher) PublishBigMoves(ctx context.Context, requestID string, t *models.BigMovesTable) error {
	return k.publish(ctx, k.bigMovesTopic, requestID, models.KindBigMoves, t.Pair, t)
}

func (k *KafkaResultPublisher) publish(ctx context.Context, topic, requestID, kind, pair string, result interface{}) error {
	env := ResultEnvelope{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		Kind:        kind,
		Pair:        pair,
		GeneratedAt: k.now().UTC(),
		Result:      result,
	}
	headers := map[string]string{"kind": kind}
	if trace := pkgkafka.TraceIDFrom(ctx); trace != "" {
		headers[pkgkafka.TraceHeader] = trace
	} else if requestID != "" {
		headers[pkgkafka.TraceHeader] = requestID
	}
	return k.p.Publish(ctx, topic, []byte(pair), env, headers)
}

func (k *KafkaResultPublisher) Close() error {
	return k.p.Close()
}

// NoopResultPublisher drops results; used when Kafka is disabled.
type NoopResultPublisher struct{}

func (NoopResultPublisher) PublishRiskCone(context.Context, string, *models.RiskConeTable) error {
	return nil
}

func (NoopResultPublisher) PublishBigMoves(context.Context, string, *models.BigMovesTable) error {
	return nil
}

func (NoopResultPublisher) Close() error { return nil }

var (
	_ domrepo.ResultPublisher = (*KafkaResultPublisher)(nil)
	_ domrepo.ResultPublisher = NoopResultPublisher{}
)
