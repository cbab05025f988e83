package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors returned by the service and repositories.
var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when inserting a product whose ID is taken.
	ErrAlreadyExists = errors.New("product already exists")
	// ErrInvalidPagination is returned for a page or page size below 1.
	ErrInvalidPagination = errors.New("page and page size must be greater than zero")
	// ErrInvalidProduct is returned when a product fails input validation.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrInvalidPatch is returned when a patch document is malformed or
	// cannot be applied.
	ErrInvalidPatch = errors.New("invalid patch")
)

// Product is the stored catalog record.
type Product struct {
	ID          string
	Name        string
	Size        string
	Colour      string
	Price       float64
	Created     time.Time
	LastUpdated time.Time
	Hash        string
}

// DTO is the externally facing representation of a Product. It carries the
// same field set as Product; see dto.go for the wire codec.
type DTO struct {
	ID          string    `validate:"required,max=128"`
	Name        string
	Size        string
	Colour      string
	Price       float64
	Created     time.Time
	LastUpdated time.Time
	Hash        string
}

// ToDTO maps a stored product to its wire representation.
func ToDTO(p Product) DTO {
	return DTO{
		ID:          p.ID,
		Name:        p.Name,
		Size:        p.Size,
		Colour:      p.Colour,
		Price:       p.Price,
		Created:     p.Created,
		LastUpdated: p.LastUpdated,
		Hash:        p.Hash,
	}
}

// FromDTO maps a wire representation to a stored product.
func FromDTO(d DTO) Product {
	return Product{
		ID:          d.ID,
		Name:        d.Name,
		Size:        d.Size,
		Colour:      d.Colour,
		Price:       d.Price,
		Created:     d.Created,
		LastUpdated: d.LastUpdated,
		Hash:        d.Hash,
	}
}

// Repository defines persistence operations for products.
//
// List enumerates products in the store's natural order, which is insertion
// order for every implementation in this module. Insert must fail with
// ErrAlreadyExists without modifying the existing record when the ID is
// taken. Save must fail with ErrNotFound when the record is missing.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, offset, limit int) ([]Product, error)
	Insert(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
}
