package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProductEndpointsCRUDFlow creates, reads, patches, and deletes a
// product through the mux.
func TestProductEndpointsCRUDFlow(t *testing.T) {
	mux, _, _ := newTestMux(t)

	code, body := doRequest(t, mux, http.MethodPost, "/api/productos", map[string]any{
		"nombre": "Quinoa Andina", "categoria": "Granos", "precio": 6.75, "stock": 40,
		"descripcion": "Quinoa de altura",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(6), body["id"])
	assert.Equal(t, true, body["disponible"])

	code, body = doRequest(t, mux, http.MethodGet, "/api/productos/6", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Quinoa Andina", body["nombre"])
	assert.Equal(t, float64(40), body["stock"])

	code, body = doRequest(t, mux, http.MethodPut, "/api/productos/6", map[string]any{
		"stock": 0,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["disponible"])

	code, body = doRequest(t, mux, http.MethodDelete, "/api/productos/6", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Producto 'Quinoa Andina' eliminado exitosamente", body["mensaje"])

	code, body = doRequest(t, mux, http.MethodGet, "/api/productos/6", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Producto no encontrado", body["detail"])
}

// TestProductEndpointsValidation rejects bad ids and bad payloads.
func TestProductEndpointsValidation(t *testing.T) {
	mux, _, _ := newTestMux(t)

	code, body := doRequest(t, mux, http.MethodGet, "/api/productos/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ID de producto inválido", body["detail"])

	code, body = doRequest(t, mux, http.MethodPost, "/api/productos", map[string]any{
		"nombre": "Gratis", "categoria": "Otros", "precio": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "precio debe ser mayor que 0", body["detail"])

	code, _ = doRequest(t, mux, http.MethodPut, "/api/productos/999", map[string]any{"stock": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doRequest(t, mux, http.MethodDelete, "/api/productos/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

// TestStatsEndpoint aggregates the seeded catalog.
func TestStatsEndpoint(t *testing.T) {
	mux, _, _ := newTestMux(t)

	code, body := doRequest(t, mux, http.MethodGet, "/api/estadisticas", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(5), body["total_productos"])
	assert.Equal(t, float64(4), body["productos_disponibles"])
	assert.Equal(t, float64(1), body["productos_agotados"])
	assert.Equal(t, 2.8, body["precio_promedio"])
	categorias := body["categorias"].(map[string]any)
	assert.Equal(t, float64(2), categorias["Frutas"])
	assert.Equal(t, float64(3), categorias["Verduras"])
}

// TestOpsEndpoints reports instance identity on /health and
// /api/instance-info.
func TestOpsEndpoints(t *testing.T) {
	mux, _, _ := newTestMux(t)

	code, body := doRequest(t, mux, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test-1", body["instance_id"])
	assert.Equal(t, "EcoMarket API", body["service"])
	assert.NotEmpty(t, body["timestamp"])

	code, body = doRequest(t, mux, http.MethodGet, "/api/instance-info", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "test-1", body["instance_id"])
	assert.Contains(t, body["endpoints"], "/api/compras")
}
