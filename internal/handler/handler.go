package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/xenking/product-catalog/internal/domain/product"
)

// DefaultPageSize is used when a list request omits pageSize and the
// configuration does not override it.
const DefaultPageSize = 10

// maxBodyBytes bounds request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// DefaultPageSize applies when the pageSize query parameter is absent.
	// Values below 1 fall back to DefaultPageSize.
	DefaultPageSize int
}

// Handler serves the product HTTP API, delegating business logic to the
// product service.
type Handler struct {
	products        *product.Service
	validate        *validator.Validate
	defaultPageSize int
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, products *product.Service) *Handler {
	pageSize := cfg.DefaultPageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Handler{
		products:        products,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		defaultPageSize: pageSize,
	}
}

// Register mounts the product routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.ListProducts)
	mux.HandleFunc("POST /products", h.CreateProduct)
	mux.HandleFunc("GET /products/{id}", h.GetProduct)
	mux.HandleFunc("PATCH /products/{id}", h.UpdateProduct)
}
