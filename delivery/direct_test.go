package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// TestDirectSuccess processes in one attempt with no errors recorded.
func TestDirectSuccess(t *testing.T) {
	s := NewDirect(health.NewRegistry(), stubRand{v: 0.5})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.Empty(t, out.Errors)
	assert.Zero(t, out.TotalWait)
	assert.Equal(t, "✅ Procesado directamente via HTTP", out.Narrative)
	assert.Equal(t, "Procesamiento inmediato exitoso (sin tolerancia a fallos)", out.Detail)
}

// TestDirectFlakyFailure lands in the 15% failure band and fails terminally
// without retrying.
func TestDirectFlakyFailure(t *testing.T) {
	s := NewDirect(health.NewRegistry(), stubRand{v: 0.1})

	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 1, out.Attempts)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, KindConnection, out.Errors[0].Kind)
	assert.Equal(t, CodeHTTPDirect, out.Code)
	assert.Equal(t, "❌ ERROR en HTTP Directo", out.Narrative)
	assert.Equal(t, "🚨 VENTA FALLIDA: Error de conexión", out.Alert)
	assert.Equal(t, "Usa un modo con reintentos o verifica tu conexión", out.Recommendation)
}

// TestDirectDisabledService fails immediately when its own flag is down and
// names the flag in uppercase.
func TestDirectDisabledService(t *testing.T) {
	reg := health.NewRegistry()
	_, err := reg.Set(health.ServiceHTTPDirect, false)
	require.NoError(t, err)

	s := NewDirect(reg, stubRand{v: 0.99})
	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, KindServiceDisabled, out.Errors[0].Kind)
	assert.Equal(t, CodeServiceDisabled, out.Code)
	assert.Equal(t, "❌ HTTP DIRECTO NO DISPONIBLE", out.Narrative)
	assert.Equal(t, "Servicio HTTP Directo desactivado - Sin reintentos en HTTP Directo", out.Detail)
	assert.Equal(t, "🚨 VENTA FALLIDA: HTTP Directo sin conexión", out.Alert)
	assert.Equal(t, "Reactiva 'HTTP Directo' desde el simulador o usa un modo con reintentos", out.Recommendation)
}

// TestDirectNetworkDownTakesPrecedence names the general network, not the
// strategy flag, when both gates are closed.
func TestDirectNetworkDownTakesPrecedence(t *testing.T) {
	reg := health.NewRegistry()
	_, err := reg.Set(health.ServiceGeneralNetwork, false)
	require.NoError(t, err)
	_, err = reg.Set(health.ServiceHTTPDirect, false)
	require.NoError(t, err)

	s := NewDirect(reg, stubRand{v: 0.99})
	out, err := s.Execute(context.Background(), Message{})
	require.NoError(t, err)

	assert.Equal(t, "❌ RED GENERAL NO DISPONIBLE", out.Narrative)
	assert.Equal(t, "🚨 VENTA FALLIDA: Red General sin conexión", out.Alert)
}
