package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"FXRisk/internal/domain/models"
	domrepo "FXRisk/internal/domain/repository"
	xhttp "FXRisk/pkg/http"
	pkgkafka "FXRisk/pkg/kafka"
	applogger "FXRisk/pkg/logger"

	"github.com/google/uuid"
)

type riskConeComputer interface {
	Compute(ctx context.Context, req models.RiskConeRequest) (*models.RiskConeTable, error)
}

type bigMovesComputer interface {
	Compute(ctx context.Context, req models.BigMovesRequest) (*models.BigMovesTable, error)
}

// KafkaRequestsHandler computes tables requested on the requests topic and
// publishes them to the result topics.
type KafkaRequestsHandler struct {
	topic     string
	riskCone  riskConeComputer
	bigMoves  bigMovesComputer
	publisher domrepo.ResultPublisher
	l         *applogger.Logger
}

func NewKafkaRequestsHandler(topic string, rc *RiskConeUseCase, bm *BigMovesUseCase, publisher domrepo.ResultPublisher) *KafkaRequestsHandler {
	return &KafkaRequestsHandler{topic: topic, riskCone: rc, bigMoves: bm, publisher: publisher}
}

func (h *KafkaRequestsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// Handle returns permanent errors for malformed or invalid requests so they
// skip retries; pricing and market data failures are retried.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.ComputeRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("decode compute request: %w", err))
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	var err error
	switch strings.ToLower(req.Kind) {
	case models.KindRiskCone:
		err = h.handleRiskCone(ctx, req)
	case models.KindBigMoves:
		err = h.handleBigMoves(ctx, req)
	default:
		err = pkgkafka.Permanent(fmt.Errorf("%w: unknown kind %q", models.ErrInvalidRequest, req.Kind))
	}
	if err != nil && models.IsInvalidInput(err) {
		err = pkgkafka.Permanent(err)
	}
	if err != nil && h.l != nil {
		h.l.Warn("compute request failed",
			applogger.String("id", req.ID),
			applogger.String("kind", req.Kind),
			applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
			applogger.Error(err),
		)
	}
	return err
}

func (h *KafkaRequestsHandler) handleRiskCone(ctx context.Context, req models.ComputeRequest) error {
	if req.RiskCone == nil {
		return fmt.Errorf("%w: riskcone payload missing", models.ErrInvalidRequest)
	}
	if errs := xhttp.Validate(req.RiskCone); len(errs) > 0 {
		return fmt.Errorf("%w: %s", models.ErrInvalidRequest, errs[0].Message)
	}
	table, err := h.riskCone.Compute(ctx, *req.RiskCone)
	if err != nil {
		return err
	}
	return h.publisher.PublishRiskCone(ctx, req.ID, table)
}

func (h *KafkaRequestsHandler) handleBigMoves(ctx context.Context, req models.ComputeRequest) error {
	if req.BigMoves == nil {
		return fmt.Errorf("%w: bigmoves payload missing", models.ErrInvalidRequest)
	}
	if errs := xhttp.Validate(req.BigMoves); len(errs) > 0 {
		return fmt.Errorf("%w: %s", models.ErrInvalidRequest, errs[0].Message)
	}
	table, err := h.bigMoves.Compute(ctx, *req.BigMoves)
	if err != nil {
		return err
	}
	return h.publisher.PublishBigMoves(ctx, req.ID, table)
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
