package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/dispatch"
	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
	"github.com/diana-martinez-ship-it/estructura-avanzada/inventory"
	"github.com/diana-martinez-ship-it/estructura-avanzada/queue"
)

// handler serves the purchase pipeline and its fault-injection control
// surface.
type handler struct {
	dispatcher dispatch.Dispatcher
	flags      *health.Registry
	queue      queue.Backend
	logger     *zap.Logger
}

func NewHandler(dispatcher dispatch.Dispatcher, flags *health.Registry, q queue.Backend, logger *zap.Logger) *handler {
	return &handler{dispatcher: dispatcher, flags: flags, queue: q, logger: logger}
}

func (h *handler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/compras", h.handlePurchase)
	mux.HandleFunc("POST /api/simular-fallo", h.handleSimulateFailure)
	mux.HandleFunc("POST /api/reset-conexiones", h.handleResetConnections)
	mux.HandleFunc("POST /api/desactivar-todo", h.handleDisableAll)
	mux.HandleFunc("POST /api/activar-todo", h.handleEnableAll)
	mux.HandleFunc("GET /api/estado-conexiones", h.handleConnectionState)
	mux.HandleFunc("POST /api/test-connection-retry", h.handleRetryProbe)
	mux.HandleFunc("GET /api/redis-queue", h.handleQueueStatus)
	mux.HandleFunc("POST /api/redis-queue/procesar", h.handleQueueProcess)
}

func (h *handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID *int   `json:"producto_id"`
		Quantity  *int   `json:"cantidad"`
		Mode      string `json:"modo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "Cuerpo de la petición inválido",
			"error_type": "VALIDATION_ERROR",
		})
		return
	}
	if body.ProductID == nil || body.Mode == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "producto_id y modo son obligatorios",
			"error_type": "VALIDATION_ERROR",
		})
		return
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}

	res, err := h.dispatcher.Purchase(r.Context(), dispatch.Request{
		ProductID: *body.ProductID,
		Quantity:  qty,
		Mode:      body.Mode,
	})
	if err != nil {
		h.respondPurchaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// respondPurchaseError maps the dispatcher's error taxonomy onto HTTP
// statuses; delivery failures never reach here, they travel in the 200
// envelope.
func (h *handler) respondPurchaseError(w http.ResponseWriter, err error) {
	var verr *dispatch.ValidationError
	var gerr *dispatch.GateClosedError
	var serr *inventory.InsufficientStockError

	switch {
	case errors.As(err, &verr):
		payload := map[string]any{
			"error":      verr.Message,
			"error_type": "VALIDATION_ERROR",
		}
		if len(verr.ValidModes) > 0 {
			payload["modos_validos"] = verr.ValidModes
		}
		respondJSON(w, http.StatusBadRequest, payload)

	case errors.As(err, &gerr):
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":            gerr.Error(),
			"mensaje":          gerr.Mensaje(),
			"modo_solicitado":  gerr.Mode,
			"estado_servicios": gerr.Services,
			"error_type":       "SERVICIO_DESACTIVADO",
		})

	case errors.Is(err, inventory.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]any{
			"detail":     "Producto no encontrado",
			"error_type": "NOT_FOUND",
		})

	case errors.Is(err, inventory.ErrNotAvailable):
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": "Producto no disponible"})

	case errors.As(err, &serr):
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": serr.Error()})

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("compra cancelada por el cliente", zap.Error(err))
		respondJSON(w, http.StatusRequestTimeout, map[string]any{"detail": "La petición fue cancelada"})

	default:
		h.logger.Error("compra fallida por error interno", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]any{"detail": "Error interno del servidor"})
	}
}

func (h *handler) handleSimulateFailure(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Servicio string `json:"servicio"`
		Activo   bool   `json:"activo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Cuerpo de la petición inválido"})
		return
	}

	servicio := strings.ToLower(body.Servicio)
	snapshot, err := h.flags.Set(servicio, body.Activo)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":                 fmt.Sprintf("Servicio '%s' no reconocido", servicio),
			"servicios_disponibles": health.Services(),
		})
		return
	}

	accion := "desactivado"
	if body.Activo {
		accion = "activado"
	}
	h.logger.Info("flag de conexión actualizado",
		zap.String("servicio", servicio),
		zap.Bool("activo", body.Activo),
	)
	respondJSON(w, http.StatusOK, map[string]any{
		"servicio":      servicio,
		"nuevo_estado":  body.Activo,
		"mensaje":       fmt.Sprintf("Servicio %s %s", servicio, accion),
		"estado_actual": snapshot,
	})
}

func (h *handler) handleResetConnections(w http.ResponseWriter, r *http.Request) {
	snapshot := h.flags.Reset()
	h.logger.Info("todas las conexiones reactivadas")
	respondJSON(w, http.StatusOK, map[string]any{
		"mensaje":       "Todas las conexiones han sido reactivadas",
		"estado_actual": snapshot,
	})
}

func (h *handler) handleDisableAll(w http.ResponseWriter, r *http.Request) {
	snapshot := h.flags.SetAll(false)
	h.logger.Warn("todos los servicios desactivados")
	respondJSON(w, http.StatusOK, map[string]any{
		"mensaje":       "🚨 TODOS los servicios han sido DESACTIVADOS",
		"estado_actual": snapshot,
	})
}

func (h *handler) handleEnableAll(w http.ResponseWriter, r *http.Request) {
	snapshot := h.flags.SetAll(true)
	h.logger.Info("todos los servicios activados")
	respondJSON(w, http.StatusOK, map[string]any{
		"mensaje":       "✅ TODOS los servicios han sido ACTIVADOS",
		"estado_actual": snapshot,
	})
}

// flagDescriptions explains each connection flag on the inspection endpoint.
var flagDescriptions = map[string]string{
	health.ServiceRabbitMQ:       "Estado de conexión a RabbitMQ (solo afecta modo RabbitMQ)",
	health.ServiceRedis:          "Estado de conexión a Redis (solo afecta modo Redis Queue)",
	health.ServiceHTTPDirect:     "Estado de conexión HTTP Directo (solo afecta modo HTTP Directo)",
	health.ServiceSimpleRetry:    "Estado de servicio Reintentos Simples (solo afecta modo Reintentos Simples)",
	health.ServiceExpBackoff:     "Estado de servicio Backoff Exponencial (solo afecta modo Backoff Exponencial)",
	health.ServiceScheduledRetry: "Estado de servicio Reintentos Sofisticados (solo afecta modo Reintentos Sofisticados)",
	health.ServiceGeneralNetwork: "Estado general de la red (afecta TODOS los modos)",
}

func (h *handler) handleConnectionState(w http.ResponseWriter, r *http.Request) {
	impacto := make(map[string][]string, len(delivery.Modes()))
	for _, mode := range delivery.Modes() {
		flag, _ := delivery.ServiceFor(mode)
		impacto[mode] = []string{flag, health.ServiceGeneralNetwork}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"conexiones":       h.flags.Snapshot(),
		"descripcion":      flagDescriptions,
		"impacto_por_modo": impacto,
	})
}

func (h *handler) handleRetryProbe(w http.ResponseWriter, r *http.Request) {
	res, err := h.dispatcher.ProbeRetries(r.Context())
	if err != nil {
		h.logger.Warn("prueba de reintentos cancelada", zap.Error(err))
		respondJSON(w, http.StatusRequestTimeout, map[string]any{"detail": "La prueba fue cancelada"})
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *handler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.queue.Status(r.Context())
	if err != nil {
		h.logger.Error("consulta de cola fallida", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "No se pudo consultar la cola"})
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *handler) handleQueueProcess(w http.ResponseWriter, r *http.Request) {
	entry, err := h.queue.ProcessNext(r.Context())
	if err != nil {
		h.logger.Error("procesamiento de cola fallido", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "No se pudo procesar la cola"})
		return
	}
	if entry == nil {
		respondJSON(w, http.StatusOK, map[string]any{"status": "empty", "mensaje": "Cola vacía"})
		return
	}
	h.logger.Info("mensaje procesado de la cola", zap.Int64("id", entry.Seq))
	respondJSON(w, http.StatusOK, map[string]any{"status": "processed", "mensaje": entry})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
