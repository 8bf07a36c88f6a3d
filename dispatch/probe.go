package dispatch

import (
	"context"
	"time"

	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
)

// StrategyReport is one strategy's outcome in the retry probe response.
type StrategyReport struct {
	Status        string   `json:"status"`
	Intento       int      `json:"intento,omitempty"`
	Intentos      int      `json:"intentos,omitempty"`
	Mensaje       string   `json:"mensaje"`
	Detalles      string   `json:"detalles,omitempty"`
	TiempoTotal   string   `json:"tiempo_total_esperas,omitempty"`
	ErrorType     string   `json:"error_type,omitempty"`
	Errores       []string `json:"errores,omitempty"`
	Recomendacion string   `json:"recomendacion,omitempty"`
}

// ProbeResult bundles one live run of each retrying strategy with the flag
// snapshot the runs observed.
type ProbeResult struct {
	EstadoConexiones map[string]bool `json:"estado_conexiones"`
	SimpleRetry      *StrategyReport `json:"reintentos_simples,omitempty"`
	ExpBackoff       *StrategyReport `json:"backoff_exponencial,omitempty"`
	ScheduledRetry   *StrategyReport `json:"reintentos_sofisticados,omitempty"`
}

// ProbeRetries exercises the three retrying strategies back to back against
// the live flags, without touching stock. The runs wait out their real
// schedules, so a probe can take a while.
func (s *Service) ProbeRetries(ctx context.Context) (*ProbeResult, error) {
	res := &ProbeResult{EstadoConexiones: s.health.Snapshot()}
	msg := delivery.Message{Timestamp: time.Now(), State: "prueba"}

	probes := []struct {
		mode string
		slot **StrategyReport
	}{
		{delivery.ModeSimpleRetry, &res.SimpleRetry},
		{delivery.ModeExpBackoff, &res.ExpBackoff},
		{delivery.ModeScheduledRetry, &res.ScheduledRetry},
	}
	for _, p := range probes {
		strat, ok := s.strategies[p.mode]
		if !ok {
			continue
		}
		out, err := strat.Execute(ctx, msg)
		if err != nil {
			return nil, err
		}
		report := reportFromOutcome(out)
		*p.slot = &report
	}
	return res, nil
}

func reportFromOutcome(out delivery.Outcome) StrategyReport {
	r := StrategyReport{
		Status:      string(out.Status),
		Mensaje:     out.Narrative,
		Detalles:    out.Detail,
		TiempoTotal: out.WaitText,
	}
	if out.Status == delivery.StatusSuccess {
		r.Intento = out.Attempts
		return r
	}
	r.Intentos = out.Attempts
	r.ErrorType = out.Code
	r.Errores = out.ErrorMessages()
	r.Recomendacion = out.Recommendation
	return r
}
