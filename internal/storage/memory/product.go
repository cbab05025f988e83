// Package memory provides in-process product storage. It is the default
// store and keeps every record for the lifetime of the process.
package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/product-catalog/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository in memory. Records are
// enumerated in insertion order.
type ProductRepository struct {
	mu    sync.RWMutex
	rows  []product.Product
	index map[string]int
}

// NewProductRepository returns an empty ProductRepository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{index: make(map[string]int)}
}

// FindByID returns a copy of the product with the given ID.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := r.rows[i]
	return &p, nil
}

// List returns up to limit products starting at offset.
func (r *ProductRepository) List(ctx context.Context, offset, limit int) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || limit < 0 {
		return nil, errors.Errorf("invalid range offset=%d limit=%d", offset, limit)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.rows) {
		return []product.Product{}, nil
	}
	end := offset + min(limit, len(r.rows)-offset)

	out := make([]product.Product, end-offset)
	copy(out, r.rows[offset:end])
	return out, nil
}

// Insert adds p. The existence check and the write happen under one lock, so
// concurrent inserts of the same ID cannot both succeed.
func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[p.ID]; ok {
		return product.ErrAlreadyExists
	}
	r.index[p.ID] = len(r.rows)
	r.rows = append(r.rows, *p)
	return nil
}

// Save replaces the stored record with p, keeping its position.
func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	r.rows[i] = *p
	return nil
}

// Len returns the number of stored products.
func (r *ProductRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

// Ping reports whether the store can serve requests. The memory store is
// always available.
func (r *ProductRepository) Ping(context.Context) error {
	return nil
}
