package delivery

import (
	"context"
	"fmt"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// QueueStrategy hands the purchase to a queue backend in a single attempt.
// The backend owns the gate check and failure classification.
type QueueStrategy struct {
	backend QueueBackend
}

func NewQueueStrategy(backend QueueBackend) *QueueStrategy {
	return &QueueStrategy{backend: backend}
}

func (s *QueueStrategy) Mode() string    { return ModeRedisQueue }
func (s *QueueStrategy) Service() string { return health.ServiceRedis }

func (s *QueueStrategy) Execute(ctx context.Context, msg Message) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	res := s.backend.Enqueue(ctx, msg)
	if !res.OK {
		return Outcome{
			Status:   StatusFailed,
			Attempts: 1,
			Errors: []AttemptError{{
				Attempt: 1,
				Kind:    res.Kind,
				Message: res.Error,
			}},
			Narrative:      "❌ ERROR en Redis Queue",
			Detail:         res.Message,
			StatusText:     res.Error,
			Code:           res.Code,
			Alert:          "🚨 VENTA NO PROCESADA: Problema con Redis",
			Recommendation: res.Recommendation,
		}, nil
	}

	return Outcome{
		Status:     StatusSuccess,
		Attempts:   1,
		Narrative:  "✅ Enviado a cola Redis exitosamente",
		Detail:     res.Message,
		StatusText: fmt.Sprintf("Queue ID: %d, Posición en cola: %d", res.Seq, res.Depth),
		QueueSeq:   res.Seq,
		QueueDepth: res.Depth,
	}, nil
}
