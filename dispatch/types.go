package dispatch

import (
	"context"
	"fmt"

	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
	"github.com/diana-martinez-ship-it/estructura-avanzada/inventory"
)

// Request is one purchase order.
type Request struct {
	ProductID int    `json:"producto_id"`
	Quantity  int    `json:"cantidad"`
	Mode      string `json:"modo"`
}

// Result is the purchase envelope returned to the client. The base fields
// are always present; the rest depend on the processing mode and on whether
// the delivery succeeded.
type Result struct {
	Mensaje           string  `json:"mensaje"`
	ProductoID        int     `json:"producto_id"`
	ProductoNombre    string  `json:"producto_nombre"`
	CantidadComprada  int     `json:"cantidad_comprada"`
	StockRestante     int     `json:"stock_restante"`
	TotalPagado       float64 `json:"total_pagado"`
	Disponible        bool    `json:"disponible"`
	ModoProcesamiento string  `json:"modo_procesamiento"`

	Procesamiento  string   `json:"procesamiento,omitempty"`
	Detalles       string   `json:"detalles,omitempty"`
	IntentoExitoso int      `json:"intento_exitoso,omitempty"`
	TiempoTotal    string   `json:"tiempo_total,omitempty"`
	Resumen        string   `json:"resumen,omitempty"`
	ModoEspecial   string   `json:"modo_especial,omitempty"`
	Cola           string   `json:"cola,omitempty"`
	RabbitMQStatus string   `json:"rabbitmq_status,omitempty"`
	RedisStatus    string   `json:"redis_status,omitempty"`
	Estado         string   `json:"estado,omitempty"`
	Alerta         string   `json:"alerta,omitempty"`
	ErrorType      string   `json:"error_type,omitempty"`
	Errores        []string `json:"errores,omitempty"`
	Recomendacion  string   `json:"recomendacion,omitempty"`
}

// Dispatcher is the purchase entry point; the telemetry middleware wraps it.
type Dispatcher interface {
	Purchase(ctx context.Context, req Request) (*Result, error)
	ProbeRetries(ctx context.Context) (*ProbeResult, error)
}

// InventoryStore is the slice of the inventory the dispatcher needs.
type InventoryStore interface {
	Reserve(ctx context.Context, id, qty int) (inventory.Product, error)
	Release(ctx context.Context, id, qty int) (inventory.Product, error)
}

// ValidationError rejects a request before any stock is touched.
type ValidationError struct {
	Message string
	// ValidModes lists the recognized modes when the requested one is not.
	ValidModes []string
}

func (e *ValidationError) Error() string { return e.Message }

// GateClosedError blocks a purchase whose processing mode is gated off. It
// carries the flag snapshot taken at rejection time.
type GateClosedError struct {
	Mode     string
	Flag     string
	Services map[string]bool
}

func (e *GateClosedError) Error() string {
	if e.Flag == health.ServiceGeneralNetwork {
		return "Red General desactivada"
	}
	return fmt.Sprintf("%s desactivado", health.DisplayName(e.Flag))
}

// Mensaje is the blocking banner shown to the client.
func (e *GateClosedError) Mensaje() string {
	if e.Flag == health.ServiceGeneralNetwork {
		return "🚨 COMPRA BLOQUEADA: Red General sin conexión. Reactiva la red desde el simulador."
	}
	return fmt.Sprintf("🚨 COMPRA BLOQUEADA: Servicio %s desactivado. Reactiva desde el simulador.", health.DisplayName(e.Flag))
}
