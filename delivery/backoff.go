package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

const (
	backoffMaxAttempts = 5
	backoffBase        = 500 * time.Millisecond
	backoffCap         = 2 * time.Second

	// Against a closed gate the schedule is shortened so the caller is not
	// held for waits that cannot succeed.
	backoffDisabledAttempts = 4
	backoffDisabledCap      = 1500 * time.Millisecond
)

// backoffBands: 20% connection, 10% overload, 5% timeout, 25% success,
// 40% payment-service generic.
var backoffBands = []outcomeBand{
	{upTo: 0.20, kind: KindConnection, message: "Conexión perdida con el servidor"},
	{upTo: 0.30, kind: KindServiceGeneric, message: "Servidor sobrecargado"},
	{upTo: 0.35, kind: KindTimeout, message: "Timeout en la respuesta del servidor"},
	{upTo: 0.60, success: true},
	{upTo: 1.01, kind: KindServiceGeneric, message: "Error interno del servicio de pagos"},
}

// ExpBackoff doubles the wait after each failed attempt, starting at half a
// second and capped at two seconds.
type ExpBackoff struct {
	health *health.Registry
	clock  Clock
	rand   Rand
}

func NewExpBackoff(reg *health.Registry, clock Clock, rnd Rand) *ExpBackoff {
	return &ExpBackoff{health: reg, clock: clock, rand: rnd}
}

func (s *ExpBackoff) Mode() string    { return ModeExpBackoff }
func (s *ExpBackoff) Service() string { return health.ServiceExpBackoff }

// backoffDelay is the wait before attempt number a, doubling from base and
// clamped at max.
func backoffDelay(a int, max time.Duration) time.Duration {
	d := backoffBase << (a - 2)
	if d > max {
		d = max
	}
	return d
}

func (s *ExpBackoff) Execute(ctx context.Context, msg Message) (Outcome, error) {
	if open, down := s.health.Gate(s.Service()); !open {
		return s.runDisabled(ctx, down)
	}

	var out Outcome
	for attempt := 1; attempt <= backoffMaxAttempts; attempt++ {
		var waited time.Duration
		if attempt > 1 {
			waited = backoffDelay(attempt, backoffCap)
			if err := s.clock.Sleep(ctx, waited); err != nil {
				return Outcome{}, err
			}
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

		b := draw(s.rand, backoffBands)
		if b.success {
			out.Status = StatusSuccess
			out.Narrative = fmt.Sprintf("✅ Procesado exitosamente con backoff exponencial en intento %d", attempt)
			out.Detail = fmt.Sprintf("Completado después de %d esperas", attempt-1)
			out.WaitText = waitSecondsText(out.TotalWait)
			return out, nil
		}
		out.Errors = append(out.Errors, AttemptError{
			Attempt:      attempt,
			Kind:         b.kind,
			Message:      backoffErrorText(attempt, b),
			WaitedBefore: waited,
		})
	}

	out.Status = StatusFailed
	out.Narrative = fmt.Sprintf("❌ VENTA FALLIDA: Backoff exponencial agotado después de %d intentos", backoffMaxAttempts)
	out.WaitText = waitSecondsText(out.TotalWait)
	out.Code = CodeBackoffExhausted
	out.Alert = "🚨 VENTA FALLIDA: Backoff exponencial agotado"
	out.Recommendation = "El sistema está experimentando problemas. Intenta nuevamente en unos minutos o contacta soporte técnico"
	return out, nil
}

func (s *ExpBackoff) runDisabled(ctx context.Context, down string) (Outcome, error) {
	servicio := health.DisplayName(down)

	var out Outcome
	for attempt := 1; attempt <= backoffDisabledAttempts; attempt++ {
		var waited time.Duration
		if attempt > 1 {
			waited = backoffDelay(attempt, backoffDisabledCap)
			if err := s.clock.Sleep(ctx, waited); err != nil {
				return Outcome{}, err
			}
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
	out.Narrative = fmt.Sprintf("❌ BACKOFF EXPONENCIAL FALLIDO: %s desactivado después de %d intentos", servicio, backoffDisabledAttempts)
	out.WaitText = waitSecondsText(out.TotalWait)
	out.Code = CodeServiceDisabled
	out.Alert = "🚨 VENTA FALLIDA: Backoff exponencial agotado"
	out.Recommendation = fmt.Sprintf("Reactiva '%s' desde el simulador de fallos", servicio)
	return out, nil
}

func backoffErrorText(attempt int, b outcomeBand) string {
	switch b.kind {
	case KindConnection:
		return fmt.Sprintf("Intento %d: Error de conexión (Backoff Exponencial)", attempt)
	case KindTimeout:
		return fmt.Sprintf("Intento %d: Timeout (Backoff Exponencial)", attempt)
	default:
		return fmt.Sprintf("Intento %d: %s (Backoff Exponencial)", attempt, b.message)
	}
}

func waitSecondsText(d time.Duration) string {
	return fmt.Sprintf("%.1f segundos", d.Seconds())
}
