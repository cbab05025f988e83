package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/product-catalog/internal/domain/product"
)

// ListProducts returns one page of products. Query parameters page and
// pageSize default to 1 and the configured page size.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q, "page", 1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Error page and page size must be integers", err)
		return
	}
	pageSize, err := intParam(q, "pageSize", h.defaultPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Error page and page size must be integers", err)
		return
	}

	products, err := h.products.List(r.Context(), page, pageSize)
	if err != nil {
		if errors.Is(err, product.ErrInvalidPagination) {
			writeError(w, r, http.StatusBadRequest, "Error page and page size must be greater than zero", nil)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "An error occurred while trying to fetch all the products", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		product.EncodeList(e, products)
	})
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, fmt.Sprintf("The following Product with ID: %s not found", id), nil)
			return
		}
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("An error occurred while fetching the product with ID: %s", id), err)
		return
	}

	writeJSON(w, http.StatusOK, p.Encode)
}

// CreateProduct stores the product in the request body and responds with
// 201 and a Location header pointing at GetProduct.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const missingBody = "Please input the required product data"

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, missingBody, err)
		return
	}
	if isAbsent(body) {
		writeError(w, r, http.StatusBadRequest, missingBody, nil)
		return
	}

	var dto product.DTO
	if err := dto.Decode(jx.DecodeBytes(body)); err != nil {
		writeError(w, r, http.StatusBadRequest, missingBody, err)
		return
	}
	if err := h.validate.StructCtx(r.Context(), dto); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid product data", err)
		return
	}

	created, err := h.products.Create(r.Context(), dto)
	if err != nil {
		if errors.Is(err, product.ErrInvalidProduct) {
			writeError(w, r, http.StatusBadRequest, "Invalid product data", err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "An error occurred while creating the product", err)
		return
	}

	w.Header().Set("Location", "/products/"+url.PathEscape(created.ID))
	writeJSON(w, http.StatusCreated, created.Encode)
}

// UpdateProduct applies the RFC 6902 patch in the request body to a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	const invalidPatch = "Error please input valid product update parameters in the request"
	id := r.PathValue("id")

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, invalidPatch, err)
		return
	}
	if isAbsent(body) {
		writeError(w, r, http.StatusBadRequest, invalidPatch, nil)
		return
	}
	patch, err := product.ParseJSONPatch(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, invalidPatch, err)
		return
	}

	updated, err := h.products.Update(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			writeError(w, r, http.StatusNotFound, fmt.Sprintf("Product with ID: %s could not be found", id), nil)
		case errors.Is(err, product.ErrInvalidPatch):
			writeError(w, r, http.StatusBadRequest, invalidPatch, err)
		default:
			writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("An error occurred while trying to update the product with ID: %s", id), err)
		}
		return
	}

	writeJSON(w, http.StatusOK, updated.Encode)
}

// intParam parses an integer query parameter, returning def when absent.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", name)
	}
	return v, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}

// isAbsent reports whether a request body carries no document.
func isAbsent(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
