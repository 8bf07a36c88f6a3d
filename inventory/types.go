package inventory

import (
	"errors"
	"fmt"
	"time"
)

// Product is one catalog entry. The JSON tags are the persisted and public
// wire shape, so they stay in Spanish.
type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"nombre"`
	Category    string    `json:"categoria"`
	Price       float64   `json:"precio"`
	Available   bool      `json:"disponible"`
	Stock       int       `json:"stock"`
	Description string    `json:"descripcion"`
	CreatedAt   time.Time `json:"fecha_agregado"`
}

// CreateInput carries the fields accepted when creating a product.
type CreateInput struct {
	Name        string  `json:"nombre"`
	Category    string  `json:"categoria"`
	Price       float64 `json:"precio"`
	Available   *bool   `json:"disponible,omitempty"`
	Stock       int     `json:"stock"`
	Description string  `json:"descripcion"`
}

// UpdateInput is a partial patch; nil fields keep their current value.
// Availability is always recomputed from stock after the patch, so a
// disponible value in the patch never survives on its own.
type UpdateInput struct {
	Name        *string  `json:"nombre,omitempty"`
	Category    *string  `json:"categoria,omitempty"`
	Price       *float64 `json:"precio,omitempty"`
	Available   *bool    `json:"disponible,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Description *string  `json:"descripcion,omitempty"`
}

// Stats summarizes the catalog for the statistics endpoint.
type Stats struct {
	TotalProducts int            `json:"total_productos"`
	Available     int            `json:"productos_disponibles"`
	OutOfStock    int            `json:"productos_agotados"`
	AveragePrice  float64        `json:"precio_promedio"`
	Categories    map[string]int `json:"categorias"`
}

var (
	// ErrNotFound: the product id does not exist.
	ErrNotFound = errors.New("producto no encontrado")
	// ErrNotAvailable: the product exists but is not purchasable.
	ErrNotAvailable = errors.New("producto no disponible")
)

// InsufficientStockError: the requested quantity exceeds the current stock.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuficiente. Solo hay %d unidades disponibles", e.Available)
}
