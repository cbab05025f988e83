package product

import (
	"context"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for Created and LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements the product use cases on top of a Repository. It holds
// no per-request state.
type Service struct {
	products Repository
	now      func() time.Time
}

// NewService creates a product Service backed by the given repository.
func NewService(products Repository, opts ...Option) *Service {
	s := &Service{
		products: products,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// timestamp returns the current time in UTC truncated to microseconds, the
// finest precision every repository stores exactly.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List returns one page of products. Pages past the end yield an empty slice.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]DTO, error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPagination
	}

	// An offset that does not fit in an int is past the end of any store.
	if page-1 > math.MaxInt/pageSize {
		return []DTO{}, nil
	}

	products, err := s.products.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	out := make([]DTO, len(products))
	for i, p := range products {
		out[i] = ToDTO(p)
	}
	return out, nil
}

// Get returns the product with the given ID or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*DTO, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	dto := ToDTO(*p)
	return &dto, nil
}

// Create stores a new product. Created and LastUpdated are stamped with the
// same instant; every other field, Hash included, is stored as given.
func (s *Service) Create(ctx context.Context, dto DTO) (*DTO, error) {
	if dto.ID == "" {
		return nil, errors.Wrap(ErrInvalidProduct, "id is required")
	}

	_, err := s.products.FindByID(ctx, dto.ID)
	switch {
	case err == nil:
		return nil, errors.Wrapf(ErrAlreadyExists, "product with ID %q", dto.ID)
	case !errors.Is(err, ErrNotFound):
		return nil, errors.Wrapf(err, "check product %q", dto.ID)
	}

	now := s.timestamp()
	dto.Created = now
	dto.LastUpdated = now

	p := FromDTO(dto)
	if err := s.products.Insert(ctx, &p); err != nil {
		return nil, errors.Wrapf(err, "insert product %q", dto.ID)
	}

	zctx.From(ctx).Info("Product created",
		zap.String("product_id", p.ID),
		zap.Time("created", p.Created),
	)
	return &dto, nil
}

// Update applies patch to the product with the given ID. ID and Created are
// restored after the patch runs, whatever it targeted, and LastUpdated is
// always refreshed.
func (s *Service) Update(ctx context.Context, id string, patch Patcher) (*DTO, error) {
	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "find product %q", id)
	}

	patched, err := patch.Apply(ToDTO(*current))
	if err != nil {
		if !errors.Is(err, ErrInvalidPatch) {
			err = errors.Wrap(ErrInvalidPatch, err.Error())
		}
		return nil, errors.Wrapf(err, "patch product %q", id)
	}

	patched.ID = current.ID
	patched.Created = current.Created
	patched.LastUpdated = s.timestamp()

	p := FromDTO(patched)
	if err := s.products.Save(ctx, &p); err != nil {
		return nil, errors.Wrapf(err, "save product %q", id)
	}

	zctx.From(ctx).Info("Product updated",
		zap.String("product_id", p.ID),
		zap.Time("last_updated", p.LastUpdated),
	)
	return &patched, nil
}
