package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// scheduledLadder is waited out before each attempt, first attempt included.
// A full run therefore holds the caller for 31 seconds.
var scheduledLadder = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// scheduledBands: 18% connection, 10% timeout, 5% early generic, 32% success,
// 35% late generic.
var scheduledBands = []outcomeBand{
	{upTo: 0.18, kind: KindConnection, message: "Error de conexión de red sofisticada"},
	{upTo: 0.28, kind: KindTimeout, message: "Timeout en conexión sofisticada"},
	{upTo: 0.33, kind: KindServiceGeneric, message: "Servicio sofisticado temporalmente no disponible"},
	{upTo: 0.65, success: true},
	{upTo: 1.01, kind: KindServiceGeneric, message: "Error interno del servidor sofisticado"},
}

// ScheduledRetry walks the fixed 1-2-4-8-16 second ladder. Unlike the other
// retrying strategies it runs every scheduled attempt even against a closed
// gate, so the control endpoints can demonstrate the full ladder.
type ScheduledRetry struct {
	health *health.Registry
	clock  Clock
	rand   Rand
}

func NewScheduledRetry(reg *health.Registry, clock Clock, rnd Rand) *ScheduledRetry {
	return &ScheduledRetry{health: reg, clock: clock, rand: rnd}
}

func (s *ScheduledRetry) Mode() string    { return ModeScheduledRetry }
func (s *ScheduledRetry) Service() string { return health.ServiceScheduledRetry }

func (s *ScheduledRetry) Execute(ctx context.Context, msg Message) (Outcome, error) {
	if open, down := s.health.Gate(s.Service()); !open {
		return s.runDisabled(ctx, down)
	}

	var out Outcome
	for attempt := 1; attempt <= len(scheduledLadder); attempt++ {
		waited := scheduledLadder[attempt-1]
		if err := s.clock.Sleep(ctx, waited); err != nil {
			return Outcome{}, err
		}
		out.Attempts = attempt
		out.TotalWait += waited

		if open, down := s.health.Gate(s.Service()); !open {
			out.Errors = append(out.Errors, AttemptError{
				Attempt:      attempt,
				Kind:         KindServiceDisabled,
				Message:      fmt.Sprintf("Intento %d: %s no disponible (espera %ds)", attempt, health.DisplayName(down), int(waited.Seconds())),
				WaitedBefore: waited,
			})
			continue
		}

		b := draw(s.rand, scheduledBands)
		if b.success {
			out.Status = StatusSuccess
			out.Narrative = fmt.Sprintf("✅ Procesado exitosamente con Reintentos Sofisticados en intento %d/%d", attempt, len(scheduledLadder))
			out.Detail = fmt.Sprintf("Compra completada después de %d intento(s) y %d segundos", attempt, int(out.TotalWait.Seconds()))
			out.WaitText = fmt.Sprintf("%d segundos", int(out.TotalWait.Seconds()))
			return out, nil
		}
		out.Errors = append(out.Errors, AttemptError{
			Attempt:      attempt,
			Kind:         b.kind,
			Message:      scheduledErrorText(attempt, b, waited),
			WaitedBefore: waited,
		})
	}

	out.Status = StatusFailed
	out.Narrative = fmt.Sprintf("❌ VENTA FALLIDA: Reintentos Sofisticados agotados después de %d intentos y %d segundos", len(scheduledLadder), int(out.TotalWait.Seconds()))
	out.WaitText = fmt.Sprintf("%d segundos", int(out.TotalWait.Seconds()))
	out.Code = CodeScheduledExhausted
	out.Alert = "🚨 VENTA FALLIDA: Reintentos Sofisticados agotados"
	out.Recommendation = "El sistema sofisticado está experimentando problemas. Intenta nuevamente más tarde"
	return out, nil
}

func (s *ScheduledRetry) runDisabled(ctx context.Context, down string) (Outcome, error) {
	servicio := health.DisplayName(down)

	var out Outcome
	for attempt := 1; attempt <= len(scheduledLadder); attempt++ {
		waited := scheduledLadder[attempt-1]
		if err := s.clock.Sleep(ctx, waited); err != nil {
			return Outcome{}, err
		}
		out.Attempts = attempt
		out.TotalWait += waited
		out.Errors = append(out.Errors, AttemptError{
			Attempt:      attempt,
			Kind:         KindServiceDisabled,
			Message:      fmt.Sprintf("Intento %d: %s no disponible (espera %ds)", attempt, servicio, int(waited.Seconds())),
			WaitedBefore: waited,
		})
	}

	out.Status = StatusFailed
	out.Narrative = fmt.Sprintf("❌ REINTENTOS SOFISTICADOS FALLIDOS: %s desactivado después de %d intentos", servicio, len(scheduledLadder))
	out.WaitText = fmt.Sprintf("%d segundos", int(out.TotalWait.Seconds()))
	out.Code = CodeServiceDisabled
	out.Alert = "🚨 VENTA FALLIDA: Reintentos Sofisticados agotados"
	out.Recommendation = fmt.Sprintf("Reactiva '%s' desde el simulador de fallos", servicio)
	return out, nil
}

func scheduledErrorText(attempt int, b outcomeBand, waited time.Duration) string {
	secs := int(waited.Seconds())
	switch b.kind {
	case KindConnection:
		return fmt.Sprintf("Intento %d: Error de conexión tras esperar %ds", attempt, secs)
	case KindTimeout:
		return fmt.Sprintf("Intento %d: Timeout tras esperar %ds", attempt, secs)
	default:
		return fmt.Sprintf("Intento %d: %s tras esperar %ds", attempt, b.message, secs)
	}
}
