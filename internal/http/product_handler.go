package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/repository"
)

// ProductHandler serves the read side of the catalog that checkout and the
// storefront need for display. Catalog writes belong to the admin surface
// and are out of scope here.
type ProductHandler struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewProductHandler(products repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to list products",
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GET /api/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondJSON(w, http.StatusNotFound, ErrorResponse{
				Error:     "product not found",
				Code:      "product_not_found",
				ProductID: productID,
			})
			return
		}
		h.logger.Error("failed to get product",
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("product_id", productID),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}
