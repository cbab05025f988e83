package postgres

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/product-catalog/internal/domain/product"
)

const productColumns = `id, name, size, colour, price, created, last_updated, hash`

const (
	findProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		ORDER BY seq OFFSET $1 LIMIT $2`

	insertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	saveProductSQL = `UPDATE products
		SET name = $2, size = $3, colour = $4, price = $5, created = $6, last_updated = $7, hash = $8
		WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
// Products are enumerated in insertion order.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// FindByID returns the product with the given ID or product.ErrNotFound.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, findProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "scan product %q", id)
	}
	return &p, nil
}

// List returns up to limit products starting at offset.
func (r *ProductRepository) List(ctx context.Context, offset, limit int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}

// Insert adds p, returning product.ErrAlreadyExists when the ID is taken.
// The conflict check is part of the INSERT statement, so concurrent inserts
// of the same ID cannot overwrite each other.
func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, insertProductSQL, args...)
	if err != nil {
		return errors.Wrapf(err, "insert product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrAlreadyExists
	}
	return nil
}

// Save overwrites every column of the stored record with p.
func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, saveProductSQL, args...)
	if err != nil {
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// productArgs returns statement arguments in productColumns order. Price is
// stored as NUMERIC using its shortest decimal representation, which parses
// back to the identical float64.
func productArgs(p *product.Product) ([]any, error) {
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return nil, errors.Errorf("product %q: price %v is not a finite number", p.ID, p.Price)
	}
	return []any{
		p.ID, p.Name, p.Size, p.Colour,
		decimal.NewFromFloat(p.Price),
		p.Created, p.LastUpdated, p.Hash,
	}, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Size, &p.Colour,
		&price, &p.Created, &p.LastUpdated, &p.Hash,
	); err != nil {
		return product.Product{}, err
	}
	p.Price = price.InexactFloat64()
	p.Created = p.Created.UTC()
	p.LastUpdated = p.LastUpdated.UTC()
	return p, nil
}
