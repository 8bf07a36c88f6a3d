package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/inventory"
)

// productHandler serves the catalog admin surface and the ops endpoints.
type productHandler struct {
	store      *inventory.Store
	instanceID string
	logger     *zap.Logger
}

func NewProductHandler(store *inventory.Store, instanceID string, logger *zap.Logger) *productHandler {
	return &productHandler{store: store, instanceID: instanceID, logger: logger}
}

func (h *productHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/productos", h.handleList)
	mux.HandleFunc("POST /api/productos", h.handleCreate)
	mux.HandleFunc("GET /api/productos/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/productos/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/productos/{id}", h.handleDelete)
	mux.HandleFunc("GET /api/estadisticas", h.handleStats)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/instance-info", h.handleInstanceInfo)
}

func (h *productHandler) productID(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("id"))
}

func (h *productHandler) handleList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List(r.Context()))
}

func (h *productHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": "ID de producto inválido"})
		return
	}

	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]any{"detail": "Producto no encontrado"})
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *productHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in inventory.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": "Cuerpo de la petición inválido"})
		return
	}

	p, err := h.store.Create(r.Context(), in)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}

	h.logger.Info("producto creado", zap.Int("id", p.ID), zap.String("nombre", p.Name))
	respondJSON(w, http.StatusCreated, p)
}

func (h *productHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": "ID de producto inválido"})
		return
	}

	var in inventory.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": "Cuerpo de la petición inválido"})
		return
	}

	p, err := h.store.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]any{"detail": "Producto no encontrado"})
			return
		}
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}

	h.logger.Info("producto actualizado", zap.Int("id", p.ID))
	respondJSON(w, http.StatusOK, p)
}

func (h *productHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"detail": "ID de producto inválido"})
		return
	}

	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]any{"detail": "Producto no encontrado"})
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		respondJSON(w, http.StatusNotFound, map[string]any{"detail": "Producto no encontrado"})
		return
	}

	h.logger.Info("producto eliminado", zap.Int("id", id), zap.String("nombre", p.Name))
	respondJSON(w, http.StatusOK, map[string]any{
		"mensaje": fmt.Sprintf("Producto '%s' eliminado exitosamente", p.Name),
	})
}

func (h *productHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Stats(r.Context()))
}

func (h *productHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"instance_id": h.instanceID,
		"timestamp":   time.Now().Format(time.RFC3339),
		"service":     "EcoMarket API",
	})
}

func (h *productHandler) handleInstanceInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"instance_id": h.instanceID,
		"timestamp":   time.Now().Format(time.RFC3339),
		"endpoints": []string{
			"/health",
			"/api/instance-info",
			"/api/productos",
			"/api/compras",
			"/api/estado-conexiones",
			"/metrics",
		},
	})
}
