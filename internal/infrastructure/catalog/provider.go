package catalog

import (
	"context"
	"sync"

	"github.com/proposalagent/backend/internal/domain"
)

// MemoryCatalog serves an immutable catalog snapshot. Replace swaps the snapshot atomically.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
}

// NewMemoryCatalog creates a provider over products, preserving their order
func NewMemoryCatalog(products []domain.Product) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.Replace(products)
	return c
}

// Replace installs a new snapshot
func (c *MemoryCatalog) Replace(products []domain.Product) {
	snapshot := append([]domain.Product(nil), products...)
	byID := make(map[string]int, len(snapshot))
	for i, p := range snapshot {
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.products = snapshot
	c.byID = byID
	c.mu.Unlock()
}

// GetProducts returns a copy of the catalog in load order
func (c *MemoryCatalog) GetProducts(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product(nil), c.products...), nil
}

// GetProduct returns a single product by id
func (c *MemoryCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p := c.products[i]
	return &p, nil
}

// Len returns the number of products in the snapshot
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
