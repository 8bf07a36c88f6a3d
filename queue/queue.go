// Package queue provides the ordered purchase queue behind the REDIS_QUEUE
// processing mode: an in-process backend for single-instance runs and a
// Redis-backed variant selected when REDIS_ADDR is configured.
package queue

import (
	"context"
	"time"

	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
)

// Entry is one queued purchase. Embedding the message flattens its fields
// into the wire shape next to the queue id.
type Entry struct {
	Seq        int64     `json:"id"`
	EnqueuedAt time.Time `json:"timestamp"`
	delivery.Message
}

// Summary is the per-entry view returned by the inspection endpoint.
type Summary struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Product   string    `json:"producto"`
}

// Status describes the queue for the inspection endpoint. Messages holds at
// most the five most recent entries.
type Status struct {
	Size          int        `json:"cola_size"`
	Pending       int        `json:"mensajes_pendientes"`
	LastProcessed *time.Time `json:"ultimo_procesado"`
	Messages      []Summary  `json:"mensajes"`
}

// Backend is implemented by the in-process queue and the Redis variant.
// ProcessNext returns nil without error when the queue is empty.
type Backend interface {
	delivery.QueueBackend
	Status(ctx context.Context) (Status, error)
	ProcessNext(ctx context.Context) (*Entry, error)
	Close() error
}

// statusTail is how many recent entries Status reports.
const statusTail = 5

// Fixed wire texts shared by both backends.
const (
	msgEnqueued     = "Venta agregada exitosamente a la cola de procesamiento"
	msgNotProcessed = "La venta no pudo ser procesada. Verifica la conexión a Redis."
	msgUnexpected   = "Ocurrió un error inesperado al procesar la venta en Redis"
	recTryOtherMode = "Intenta con otro modo de procesamiento o contacta al administrador"
	errNoConnection = "No se pudo conectar a Redis"
)
