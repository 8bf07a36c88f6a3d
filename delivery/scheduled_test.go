package delivery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// TestScheduledRetryExhausted walks the complete 1-2-4-8-16 ladder, waiting
// before every attempt including the first.
func TestScheduledRetryExhausted(t *testing.T) {
	clock := &fakeClock{}
	s := NewScheduledRetry(health.NewRegistry(), clock, stubRand{v: 0.1})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 5, out.Attempts)
	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, clock.sleeps)
	assert.Equal(t, 31*time.Second, out.TotalWait)
	assert.Equal(t, "31 segundos", out.WaitText)
	require.Len(t, out.Errors, 5)
	ladder := []int{1, 2, 4, 8, 16}
	for i, e := range out.Errors {
		assert.Equal(t, KindConnection, e.Kind)
		assert.Equal(t, fmt.Sprintf("Intento %d: Error de conexión tras esperar %ds", i+1, ladder[i]), e.Message)
		assert.Equal(t, time.Duration(ladder[i])*time.Second, e.WaitedBefore)
	}
	assert.Equal(t, "❌ VENTA FALLIDA: Reintentos Sofisticados agotados después de 5 intentos y 31 segundos", out.Narrative)
	assert.Equal(t, CodeScheduledExhausted, out.Code)
	assert.Equal(t, out.TotalWait, sumWaits(out, 0))
}

// TestScheduledRetrySucceedsMidLadder stops at the successful attempt and
// reports only the ladder prefix actually waited.
func TestScheduledRetrySucceedsMidLadder(t *testing.T) {
	clock := &fakeClock{}
	s := NewScheduledRetry(health.NewRegistry(), clock, &scriptRand{vals: []float64{0.99, 0.5}})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, clock.sleeps)
	assert.Equal(t, 3*time.Second, out.TotalWait)
	assert.Equal(t, "3 segundos", out.WaitText)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Intento 1: Error interno del servidor sofisticado tras esperar 1s", out.Errors[0].Message)
	assert.Equal(t, "✅ Procesado exitosamente con Reintentos Sofisticados en intento 2/5", out.Narrative)
	assert.Equal(t, "Compra completada después de 2 intento(s) y 3 segundos", out.Detail)
	assert.Equal(t, out.TotalWait, sumWaits(out, 2*time.Second))
}

// TestScheduledRetryDisabledStillRunsFullLadder keeps all five scheduled
// attempts even against a closed gate.
func TestScheduledRetryDisabledStillRunsFullLadder(t *testing.T) {
	reg := health.NewRegistry()
	_, err := reg.Set(health.ServiceScheduledRetry, false)
	require.NoError(t, err)

	clock := &fakeClock{}
	s := NewScheduledRetry(reg, clock, stubRand{v: 0.5})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 5, out.Attempts)
	assert.Equal(t, 31*time.Second, out.TotalWait)
	require.Len(t, out.Errors, 5)
	assert.Equal(t, "Intento 1: Reintentos Sofisticados no disponible (espera 1s)", out.Errors[0].Message)
	assert.Equal(t, "Intento 5: Reintentos Sofisticados no disponible (espera 16s)", out.Errors[4].Message)
	assert.Equal(t, "❌ REINTENTOS SOFISTICADOS FALLIDOS: Reintentos Sofisticados desactivado después de 5 intentos", out.Narrative)
	assert.Equal(t, CodeServiceDisabled, out.Code)
	assert.Equal(t, "Reactiva 'Reintentos Sofisticados' desde el simulador de fallos", out.Recommendation)
}

// TestScheduledRetryCancelledBeforeFirstAttempt aborts during the initial
// one-second wait.
func TestScheduledRetryCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduledRetry(health.NewRegistry(), NewClock(), stubRand{v: 0.5})
	_, err := s.Execute(ctx, Message{})
	require.ErrorIs(t, err, context.Canceled)
}
