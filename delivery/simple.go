package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

const (
	simpleMaxAttempts = 4
	simpleWait        = time.Second
)

// simpleBands: 15% connection, 10% timeout, 5% early generic, 40% success,
// 35% late generic.
var simpleBands = []outcomeBand{
	{upTo: 0.15, kind: KindConnection, message: "Error de conexión de red"},
	{upTo: 0.25, kind: KindTimeout, message: "Timeout en la conexión"},
	{upTo: 0.30, kind: KindServiceGeneric, message: "Servicio temporalmente no disponible"},
	{upTo: 0.70, success: true},
	{upTo: 1.01, kind: KindServiceGeneric, message: "Error interno del servidor"},
}

// SimpleRetry runs up to four attempts with a fixed one-second wait between
// them.
type SimpleRetry struct {
	health *health.Registry
	clock  Clock
	rand   Rand
}

func NewSimpleRetry(reg *health.Registry, clock Clock, rnd Rand) *SimpleRetry {
	return &SimpleRetry{health: reg, clock: clock, rand: rnd}
}

func (s *SimpleRetry) Mode() string    { return ModeSimpleRetry }
func (s *SimpleRetry) Service() string { return health.ServiceSimpleRetry }

func (s *SimpleRetry) Execute(ctx context.Context, msg Message) (Outcome, error) {
	if open, down := s.health.Gate(s.Service()); !open {
		return s.runDisabled(ctx, down)
	}

	var out Outcome
	for attempt := 1; attempt <= simpleMaxAttempts; attempt++ {
		var waited time.Duration
		if attempt > 1 {
			if err := s.clock.Sleep(ctx, simpleWait); err != nil {
				return Outcome{}, err
			}
			waited = simpleWait
		}
		out.Attempts = attempt
		out.TotalWait += waited

		if open, down := s.health.Gate(s.Service()); !open {
			out.Errors = append(out.Errors, AttemptError{
				Attempt:      attempt,
				Kind:         KindServiceDisabled,
				Message:      fmt.Sprintf("Intento %d: %s no disponible", attempt, health.DisplayName(down)),
				WaitedBefore: waited,
			})
			continue
		}

		b := draw(s.rand, simpleBands)
		if b.success {
			out.Status = StatusSuccess
			out.Narrative = fmt.Sprintf("✅ Procesado exitosamente en intento %d/%d", attempt, simpleMaxAttempts)
			out.Detail = fmt.Sprintf("Compra completada después de %d intento(s)", attempt)
			return out, nil
		}
		out.Errors = append(out.Errors, AttemptError{
			Attempt:      attempt,
			Kind:         b.kind,
			Message:      simpleErrorText(attempt, b),
			WaitedBefore: waited,
		})
	}

	out.Status = StatusFailed
	out.Narrative = fmt.Sprintf("❌ VENTA FALLIDA: No se pudo procesar después de %d intentos", simpleMaxAttempts)
	out.Code = CodeRetryExhausted
	out.Alert = "🚨 VENTA FALLIDA después de múltiples reintentos"
	out.Recommendation = "Verifica tu conexión a internet y vuelve a intentar más tarde"
	return out, nil
}

// runDisabled walks the full schedule against a closed gate so the caller
// still observes the real retry cadence.
func (s *SimpleRetry) runDisabled(ctx context.Context, down string) (Outcome, error) {
	servicio := health.DisplayName(down)

	var out Outcome
	for attempt := 1; attempt <= simpleMaxAttempts; attempt++ {
		var waited time.Duration
		if attempt > 1 {
			if err := s.clock.Sleep(ctx, simpleWait); err != nil {
				return Outcome{}, err
			}
			waited = simpleWait
		}
		out.Attempts = attempt
		out.TotalWait += waited
		out.Errors = append(out.Errors, AttemptError{
			Attempt:      attempt,
			Kind:         KindServiceDisabled,
			Message:      fmt.Sprintf("Intento %d: %s no disponible", attempt, servicio),
			WaitedBefore: waited,
		})
	}

	out.Status = StatusFailed
	out.Narrative = fmt.Sprintf("❌ REINTENTOS SIMPLES FALLIDOS: %s desactivado después de %d intentos", servicio, simpleMaxAttempts)
	out.Code = CodeServiceDisabled
	out.Alert = "🚨 VENTA FALLIDA después de múltiples reintentos"
	out.Recommendation = fmt.Sprintf("Reactiva '%s' desde el simulador de fallos", servicio)
	return out, nil
}

func simpleErrorText(attempt int, b outcomeBand) string {
	switch b.kind {
	case KindConnection:
		return fmt.Sprintf("Intento %d: Error de conexión (Reintentos Simples)", attempt)
	case KindTimeout:
		return fmt.Sprintf("Intento %d: Timeout (Reintentos Simples)", attempt)
	default:
		return fmt.Sprintf("Intento %d: %s (Reintentos Simples)", attempt, b.message)
	}
}
