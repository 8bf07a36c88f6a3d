package delivery

import (
	"context"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// BrokerStrategy publishes the purchase through the broker backend in a
// single attempt. The backend owns the gate check, connection handling, and
// failure classification.
type BrokerStrategy struct {
	backend BrokerBackend
}

func NewBrokerStrategy(backend BrokerBackend) *BrokerStrategy {
	return &BrokerStrategy{backend: backend}
}

func (s *BrokerStrategy) Mode() string    { return ModeRabbitMQ }
func (s *BrokerStrategy) Service() string { return health.ServiceRabbitMQ }

func (s *BrokerStrategy) Execute(ctx context.Context, msg Message) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	res := s.backend.Publish(ctx, msg)
	if !res.OK {
		return Outcome{
			Status:   StatusFailed,
			Attempts: 1,
			Errors: []AttemptError{{
				Attempt: 1,
				Kind:    res.Kind,
				Message: res.Error,
			}},
			Narrative:  "❌ ERROR en procesamiento RabbitMQ",
			Detail:     res.Message,
			StatusText: res.Error,
			Code:       res.Code,
			Alert:      "🚨 VENTA NO PROCESADA: Problema con RabbitMQ",
		}, nil
	}

	return Outcome{
		Status:     StatusSuccess,
		Attempts:   1,
		Narrative:  "✅ Venta procesada exitosamente via RabbitMQ",
		Detail:     "Mensaje enviado a cola con garantías de entrega",
		StatusText: res.Message,
		Queue:      res.Queue,
	}, nil
}
