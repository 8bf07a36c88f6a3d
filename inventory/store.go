// Package inventory owns the persisted product catalog. All mutations,
// including reservations, serialize through one store and rewrite the
// backing JSON file atomically.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store keeps the product list in memory and mirrors every successful
// mutation to a single JSON file (write-to-temp + rename, so a crash can
// never leave a torn file behind).
type Store struct {
	mu       sync.RWMutex
	path     string
	products []Product
	nextID   int
	logger   *zap.Logger
}

// NewStore loads the catalog from path, seeding the demonstration catalog
// when the file is missing or unreadable. It never fails the process on a
// malformed file; it logs and starts from the seed instead.
func NewStore(path string, logger *zap.Logger) *Store {
	s := &Store{path: path, logger: logger}
	s.loadOrSeed()
	return s
}

func defaultCatalog(now time.Time) []Product {
	return []Product{
		{ID: 1, Name: "Manzana Orgánica", Category: "Frutas", Price: 2.5, Available: true, Stock: 150, Description: "Manzanas orgánicas frescas y crujientes", CreatedAt: now},
		{ID: 2, Name: "Tomate Cherry", Category: "Verduras", Price: 3.0, Available: true, Stock: 200, Description: "Tomates cherry dulces y jugosos", CreatedAt: now},
		{ID: 3, Name: "Lechuga Hidropónica", Category: "Verduras", Price: 1.8, Available: false, Stock: 0, Description: "Lechuga fresca cultivada hidropónicamente", CreatedAt: now},
		{ID: 4, Name: "Zanahoria Orgánica", Category: "Verduras", Price: 2.2, Available: true, Stock: 300, Description: "Zanahorias orgánicas ricas en vitaminas", CreatedAt: now},
		{ID: 5, Name: "Palta Hass", Category: "Frutas", Price: 4.5, Available: true, Stock: 80, Description: "Paltas Hass cremosas y nutritivas", CreatedAt: now},
	}
}

func (s *Store) loadOrSeed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read inventory file, seeding catalog",
				zap.String("path", s.path), zap.Error(err))
		}
		s.seedLocked()
		return
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		s.logger.Warn("malformed inventory file, seeding catalog",
			zap.String("path", s.path), zap.Error(err))
		s.seedLocked()
		return
	}

	s.products = products
	s.nextID = 1
	for _, p := range products {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	s.logger.Info("inventory loaded",
		zap.String("path", s.path), zap.Int("products", len(products)))
}

func (s *Store) seedLocked() {
	s.products = defaultCatalog(time.Now())
	s.nextID = 6
	s.persistLocked()
	s.logger.Info("inventory seeded", zap.String("path", s.path), zap.Int("products", len(s.products)))
}

// persistLocked rewrites the whole file under the write lock. A failure is
// logged, not propagated: the in-memory state stays authoritative and the
// next successful mutation rewrites the complete catalog anyway.
func (s *Store) persistLocked() {
	data, err := json.MarshalIndent(s.products, "", "  ")
	if err != nil {
		s.logger.Error("failed to marshal inventory", zap.Error(err))
		return
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".productos-*.json")
	if err != nil {
		s.logger.Error("failed to create inventory temp file", zap.Error(err))
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logger.Error("failed to write inventory temp file", zap.Error(err))
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.logger.Error("failed to close inventory temp file", zap.Error(err))
		return
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.logger.Error("failed to replace inventory file", zap.Error(err))
	}
}

// List returns a snapshot copy of the catalog.
func (s *Store) List(ctx context.Context) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns one product by id.
func (s *Store) Get(ctx context.Context, id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

// Create adds a product, assigns the next id and stamps the creation time.
// Availability always derives from stock.
func (s *Store) Create(ctx context.Context, in CreateInput) (Product, error) {
	if in.Name == "" {
		return Product{}, fmt.Errorf("nombre requerido")
	}
	if in.Price <= 0 {
		return Product{}, fmt.Errorf("precio debe ser mayor que 0")
	}
	if in.Stock < 0 {
		return Product{}, fmt.Errorf("stock no puede ser negativo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Product{
		ID:          s.nextID,
		Name:        in.Name,
		Category:    in.Category,
		Price:       round2(in.Price),
		Available:   in.Stock > 0,
		Stock:       in.Stock,
		Description: in.Description,
		CreatedAt:   time.Now(),
	}
	s.nextID++
	s.products = append(s.products, p)
	s.persistLocked()

	return p, nil
}

// Update applies a partial patch and recomputes availability from stock.
func (s *Store) Update(ctx context.Context, id int, in UpdateInput) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Product{}, ErrNotFound
	}

	p := &s.products[idx]
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return Product{}, fmt.Errorf("precio debe ser mayor que 0")
		}
		p.Price = round2(*in.Price)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return Product{}, fmt.Errorf("stock no puede ser negativo")
		}
		p.Stock = *in.Stock
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.Available = p.Stock > 0

	s.persistLocked()
	return *p, nil
}

// Delete removes a product. Its id is never reused.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}

	s.products = append(s.products[:idx], s.products[idx+1:]...)
	s.persistLocked()
	return nil
}

// Reserve atomically checks availability and decrements stock by qty,
// persisting the result. It returns the product snapshot after the
// decrement. Concurrent reservations serialize: the second caller observes
// the first one's decrement.
func (s *Store) Reserve(ctx context.Context, id, qty int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Product{}, ErrNotFound
	}

	p := &s.products[idx]
	if !p.Available {
		return Product{}, ErrNotAvailable
	}
	if p.Stock < qty {
		return Product{}, &InsufficientStockError{Available: p.Stock}
	}

	p.Stock -= qty
	p.Available = p.Stock > 0
	s.persistLocked()

	return *p, nil
}

// Release is the inverse of Reserve, used by the dispatcher's rollback and
// cancellation paths. It returns the restored product.
func (s *Store) Release(ctx context.Context, id, qty int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Product{}, ErrNotFound
	}

	p := &s.products[idx]
	p.Stock += qty
	p.Available = p.Stock > 0
	s.persistLocked()

	return *p, nil
}

// Stats aggregates catalog counters for the statistics endpoint.
func (s *Store) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		TotalProducts: len(s.products),
		Categories:    map[string]int{},
	}
	var sum float64
	for _, p := range s.products {
		if p.Available {
			st.Available++
		}
		st.Categories[p.Category]++
		sum += p.Price
	}
	st.OutOfStock = st.TotalProducts - st.Available
	if st.TotalProducts > 0 {
		st.AveragePrice = round2(sum / float64(st.TotalProducts))
	}
	return st
}

func (s *Store) indexLocked(id int) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
