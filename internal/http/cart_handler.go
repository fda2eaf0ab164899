package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/repository"
	"github.com/dairymilkyway/Artstr/internal/service"
)

type CartHandler struct {
	carts  *service.CartService
	logger *zap.Logger
}

func NewCartHandler(carts *service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get cart",
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to retrieve cart")
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// POST /api/cart/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

// PUT /api/cart/update/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), userID, productID, req.Quantity); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/cart/remove/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), userID, productID); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.ClearCart(r.Context(), userID); err != nil {
		h.respondCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *service.ProductNotFoundError
	switch {
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error:     "product not found",
			Code:      "product_not_found",
			ProductID: notFound.ProductID,
		})
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not found in cart")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	default:
		h.logger.Error("cart operation failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "cart operation failed")
	}
}
