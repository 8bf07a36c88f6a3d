package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// directFailBand is the share of direct calls that fail when the gate is open.
const directFailBand = 0.15

// Direct processes the purchase in a single attempt with no retries; any
// failure, simulated or gated, is terminal.
type Direct struct {
	health *health.Registry
	rand   Rand
}

func NewDirect(reg *health.Registry, rnd Rand) *Direct {
	return &Direct{health: reg, rand: rnd}
}

func (s *Direct) Mode() string    { return ModeHTTPDirect }
func (s *Direct) Service() string { return health.ServiceHTTPDirect }

func (s *Direct) Execute(ctx context.Context, msg Message) (Outcome, error) {
	if open, down := s.health.Gate(s.Service()); !open {
		servicio := health.DisplayName(down)
		return Outcome{
			Status:   StatusFailed,
			Attempts: 1,
			Errors: []AttemptError{{
				Attempt: 1,
				Kind:    KindServiceDisabled,
				Message: fmt.Sprintf("Intento 1: %s no disponible", servicio),
			}},
			Narrative:      fmt.Sprintf("❌ %s NO DISPONIBLE", strings.ToUpper(servicio)),
			Detail:         fmt.Sprintf("Servicio %s desactivado - Sin reintentos en HTTP Directo", servicio),
			Code:           CodeServiceDisabled,
			Alert:          fmt.Sprintf("🚨 VENTA FALLIDA: %s sin conexión", servicio),
			Recommendation: fmt.Sprintf("Reactiva '%s' desde el simulador o usa un modo con reintentos", servicio),
		}, nil
	}

	if s.rand.Float64() < directFailBand {
		return Outcome{
			Status:   StatusFailed,
			Attempts: 1,
			Errors: []AttemptError{{
				Attempt: 1,
				Kind:    KindConnection,
				Message: "Intento 1: Error de conexión en HTTP Directo",
			}},
			Narrative:      "❌ ERROR en HTTP Directo",
			Detail:         "Fallo en procesamiento directo - Sin reintentos disponibles",
			Code:           CodeHTTPDirect,
			Alert:          "🚨 VENTA FALLIDA: Error de conexión",
			Recommendation: "Usa un modo con reintentos o verifica tu conexión",
		}, nil
	}

	return Outcome{
		Status:    StatusSuccess,
		Attempts:  1,
		Narrative: "✅ Procesado directamente via HTTP",
		Detail:    "Procesamiento inmediato exitoso (sin tolerancia a fallos)",
	}, nil
}
