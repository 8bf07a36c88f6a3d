package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// TestSimpleRetrySucceedsMidSchedule fails twice, then succeeds on the third
// attempt with one second waited before each retry.
func TestSimpleRetrySucceedsMidSchedule(t *testing.T) {
	clock := &fakeClock{}
	s := NewSimpleRetry(health.NewRegistry(), clock, &scriptRand{vals: []float64{0.0, 0.99, 0.5}})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 2*time.Second, out.TotalWait)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps)
	require.Len(t, out.Errors, 2)
	assert.Equal(t, "Intento 1: Error de conexión (Reintentos Simples)", out.Errors[0].Message)
	assert.Equal(t, "Intento 2: Error interno del servidor (Reintentos Simples)", out.Errors[1].Message)
	assert.Equal(t, "✅ Procesado exitosamente en intento 3/4", out.Narrative)
	assert.Equal(t, "Compra completada después de 3 intento(s)", out.Detail)
	assert.Equal(t, out.TotalWait, sumWaits(out, time.Second))
}

// TestSimpleRetryExhausted runs all four attempts, classifies each failure,
// and reports the retries as spent.
func TestSimpleRetryExhausted(t *testing.T) {
	clock := &fakeClock{}
	s := NewSimpleRetry(health.NewRegistry(), clock, &scriptRand{vals: []float64{0.0, 0.16, 0.26, 0.71}})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 4, out.Attempts)
	assert.Equal(t, 3*time.Second, out.TotalWait)
	require.Len(t, out.Errors, 4)
	assert.Equal(t, KindConnection, out.Errors[0].Kind)
	assert.Equal(t, KindTimeout, out.Errors[1].Kind)
	assert.Equal(t, KindServiceGeneric, out.Errors[2].Kind)
	assert.Equal(t, KindServiceGeneric, out.Errors[3].Kind)
	assert.Equal(t, "Intento 2: Timeout (Reintentos Simples)", out.Errors[1].Message)
	assert.Equal(t, "Intento 3: Servicio temporalmente no disponible (Reintentos Simples)", out.Errors[2].Message)
	assert.Equal(t, "❌ VENTA FALLIDA: No se pudo procesar después de 4 intentos", out.Narrative)
	assert.Equal(t, CodeRetryExhausted, out.Code)
	assert.Equal(t, "Verifica tu conexión a internet y vuelve a intentar más tarde", out.Recommendation)
	assert.Equal(t, out.TotalWait, sumWaits(out, 0))
}

// TestSimpleRetryDisabledRun walks the full schedule against a closed gate:
// four service_disabled errors spaced by one second.
func TestSimpleRetryDisabledRun(t *testing.T) {
	reg := health.NewRegistry()
	_, err := reg.Set(health.ServiceSimpleRetry, false)
	require.NoError(t, err)

	clock := &fakeClock{}
	s := NewSimpleRetry(reg, clock, stubRand{v: 0.5})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 4, out.Attempts)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, clock.sleeps)
	require.Len(t, out.Errors, 4)
	for i, e := range out.Errors {
		assert.Equal(t, KindServiceDisabled, e.Kind)
		assert.Equal(t, i+1, e.Attempt)
		assert.Contains(t, e.Message, "Reintentos Simples no disponible")
	}
	assert.Equal(t, "❌ REINTENTOS SIMPLES FALLIDOS: Reintentos Simples desactivado después de 4 intentos", out.Narrative)
	assert.Equal(t, CodeServiceDisabled, out.Code)
	assert.Equal(t, "Reactiva 'Reintentos Simples' desde el simulador de fallos", out.Recommendation)
}

// TestSimpleRetryNetworkPrecedence blames the general network when it is down
// alongside the strategy flag.
func TestSimpleRetryNetworkPrecedence(t *testing.T) {
	reg := health.NewRegistry()
	_, err := reg.Set(health.ServiceGeneralNetwork, false)
	require.NoError(t, err)

	s := NewSimpleRetry(reg, &fakeClock{}, stubRand{v: 0.5})
	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, "❌ REINTENTOS SIMPLES FALLIDOS: Red General desactivado después de 4 intentos", out.Narrative)
	assert.Equal(t, "Reactiva 'Red General' desde el simulador de fallos", out.Recommendation)
	assert.Equal(t, "Intento 1: Red General no disponible", out.Errors[0].Message)
}

// TestSimpleRetryCancelledMidWait aborts the schedule as soon as the request
// context is cancelled.
func TestSimpleRetryCancelledMidWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s := NewSimpleRetry(health.NewRegistry(), NewClock(), stubRand{v: 0.0})

	start := time.Now()
	_, err := s.Execute(ctx, Message{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
