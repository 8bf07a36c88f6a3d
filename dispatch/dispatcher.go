// Package dispatch routes a validated purchase through its processing
// strategy and owns the surrounding protocol: gate check, stock reservation,
// envelope assembly, and rollback when a side-effect delivery fails.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/common/metrics"
	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// rollbackOnFailure marks the modes whose terminal failure releases the
// reservation: their message never reached a destination, so the decrement
// must not stand. The pure retry modes keep it committed.
var rollbackOnFailure = map[string]bool{
	delivery.ModeRedisQueue: true,
	delivery.ModeRabbitMQ:   true,
}

// Service is the concrete dispatcher.
type Service struct {
	store      InventoryStore
	health     *health.Registry
	strategies map[string]delivery.Strategy
	metrics    *metrics.PipelineMetrics
	logger     *zap.Logger
}

// NewService indexes the strategies by mode. A nil metrics handle disables
// recording.
func NewService(store InventoryStore, reg *health.Registry, strategies []delivery.Strategy, m *metrics.PipelineMetrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	byMode := make(map[string]delivery.Strategy, len(strategies))
	for _, s := range strategies {
		byMode[s.Mode()] = s
	}
	return &Service{
		store:      store,
		health:     reg,
		strategies: byMode,
		metrics:    m,
		logger:     logger,
	}
}

// Purchase validates the request, blocks it if its gate is closed, reserves
// stock, runs the strategy, and assembles the envelope. A failed delivery is
// a normal result; the error return covers validation, gating, reservation
// failures, and cancellation.
func (s *Service) Purchase(ctx context.Context, req Request) (*Result, error) {
	compraID := uuid.New().String()
	log := s.logger.With(
		zap.String("compra_id", compraID),
		zap.String("modo", req.Mode),
		zap.Int("producto_id", req.ProductID),
		zap.Int("cantidad", req.Quantity),
	)

	if req.Quantity <= 0 {
		return nil, &ValidationError{Message: "La cantidad debe ser mayor que 0"}
	}
	strat, ok := s.strategies[req.Mode]
	if !ok {
		return nil, &ValidationError{
			Message:    fmt.Sprintf("Modo de procesamiento no válido: %s", req.Mode),
			ValidModes: delivery.Modes(),
		}
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("compra_id", compraID))
	span.AddEvent("validated")

	if open, down := s.health.Gate(strat.Service()); !open {
		log.Warn("compra bloqueada", zap.String("flag", down))
		span.AddEvent("gate closed: " + down)
		return nil, &GateClosedError{Mode: req.Mode, Flag: down, Services: s.health.Snapshot()}
	}
	span.AddEvent("gate open")

	product, err := s.store.Reserve(ctx, req.ProductID, req.Quantity)
	if err != nil {
		log.Warn("reserva rechazada", zap.Error(err))
		return nil, err
	}
	span.AddEvent(fmt.Sprintf("reserved: stock_after=%d", product.Stock))

	msg := delivery.Message{
		Timestamp:   time.Now(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Category:    product.Category,
		UnitPrice:   product.Price,
		Quantity:    req.Quantity,
		Total:       round2(product.Price * float64(req.Quantity)),
		StockAfter:  product.Stock,
		Mode:        req.Mode,
		State:       "completada",
	}

	res := &Result{
		Mensaje:           fmt.Sprintf("Compra exitosa de %d unidad(es) de '%s'", req.Quantity, product.Name),
		ProductoID:        product.ID,
		ProductoNombre:    product.Name,
		CantidadComprada:  req.Quantity,
		StockRestante:     product.Stock,
		TotalPagado:       msg.Total,
		Disponible:        product.Available,
		ModoProcesamiento: req.Mode,
	}

	out, err := strat.Execute(ctx, msg)
	if err != nil {
		// Cancelled mid-run: the reserved units go back before the error
		// surfaces. The release runs on a detached context because the
		// request's one is already dead.
		if _, rerr := s.store.Release(context.WithoutCancel(ctx), req.ProductID, req.Quantity); rerr != nil {
			log.Error("no se pudo liberar la reserva tras cancelación", zap.Error(rerr))
		} else {
			span.AddEvent("reservation released: cancelled")
		}
		log.Warn("compra cancelada", zap.Error(err))
		return nil, err
	}
	span.AddEvent(fmt.Sprintf("strategy done: status=%s attempts=%d", out.Status, out.Attempts))

	composeResult(req.Mode, out, res)

	if out.Status == delivery.StatusFailed && rollbackOnFailure[req.Mode] {
		restored, rerr := s.store.Release(ctx, req.ProductID, req.Quantity)
		if rerr != nil {
			log.Error("no se pudo liberar la reserva", zap.Error(rerr))
		} else {
			res.StockRestante = restored.Stock
			res.Disponible = restored.Available
			span.AddEvent("reservation released: delivery failed")
			if s.metrics != nil {
				s.metrics.ReservationRollbacks.WithLabelValues(req.Mode).Inc()
			}
		}
	}

	s.recordMetrics(req.Mode, out)
	log.Info("compra procesada",
		zap.String("estado", estadoLabel(out.Status)),
		zap.Int("intentos", out.Attempts),
		zap.Duration("espera_total", out.TotalWait),
	)
	return res, nil
}

// composeResult decorates the base envelope with the mode-specific fields.
func composeResult(mode string, out delivery.Outcome, res *Result) {
	res.Procesamiento = out.Narrative

	switch mode {
	case delivery.ModeHTTPDirect:
		res.Detalles = out.Detail

	case delivery.ModeRedisQueue:
		res.RedisStatus = out.StatusText
		res.Detalles = out.Detail

	case delivery.ModeRabbitMQ:
		res.RabbitMQStatus = out.StatusText
		res.Detalles = out.Detail
		if out.Status == delivery.StatusSuccess {
			res.Cola = out.Queue
		}

	case delivery.ModeSimpleRetry, delivery.ModeExpBackoff, delivery.ModeScheduledRetry:
		res.Detalles = "Status: " + string(out.Status)
		if out.Status == delivery.StatusSuccess {
			res.IntentoExitoso = out.Attempts
			res.Resumen = out.Detail
		}
		if mode != delivery.ModeSimpleRetry {
			res.TiempoTotal = out.WaitText
		}
		if mode == delivery.ModeScheduledRetry {
			if out.Status == delivery.StatusSuccess {
				res.ModoEspecial = "🎯 Reintentos Sofisticados (1,2,4,8,16s)"
			} else {
				res.ModoEspecial = "🎯 Reintentos Sofisticados (5 intentos fallidos)"
			}
		}
	}

	if out.Status == delivery.StatusFailed {
		res.Estado = "fallida"
		res.Alerta = out.Alert
		res.ErrorType = out.Code
		res.Errores = out.ErrorMessages()
		res.Recomendacion = out.Recommendation
	}
}

func (s *Service) recordMetrics(mode string, out delivery.Outcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordPurchase(mode, estadoLabel(out.Status), out.Attempts, out.TotalWait)

	switch mode {
	case delivery.ModeRabbitMQ:
		status := "ok"
		if out.Status == delivery.StatusFailed {
			status = "failed"
		}
		s.metrics.BrokerPublishes.WithLabelValues(status).Inc()
	case delivery.ModeRedisQueue:
		if out.Status == delivery.StatusSuccess {
			s.metrics.QueueDepth.Set(float64(out.QueueDepth))
		}
	}
}

func estadoLabel(st delivery.Status) string {
	if st == delivery.StatusFailed {
		return "fallida"
	}
	return "completada"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
