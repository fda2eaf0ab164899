package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/repository"
	"github.com/dairymilkyway/Artstr/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type CheckoutItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequestDTO struct {
	Items          []CheckoutItemDTO `json:"items"`
	Name           string            `json:"name"`
	PhoneNumber    string            `json:"phone_number"`
	Email          string            `json:"email"`
	Address        string            `json:"address"`
	Courier        string            `json:"courier"`
	PaymentMethod  string            `json:"payment_method"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// POST /api/orders/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "empty_checkout", "items must not be empty")
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
			return
		}
		if item.Quantity <= 0 || item.Quantity > 99 {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
			return
		}
	}
	if req.Name == "" || req.PhoneNumber == "" || req.Email == "" || req.Address == "" {
		respondError(w, http.StatusBadRequest, "missing_shipping_info",
			"name, phone_number, email and address are required")
		return
	}
	if req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_method", "payment_method is required")
		return
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = r.Header.Get("Idempotency-Key")
	}

	items := make([]service.CheckoutItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := h.checkout.Checkout(r.Context(), userID, &service.CheckoutRequest{
		Items: items,
		Shipping: domain.ShippingInfo{
			Name:        req.Name,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
			Address:     req.Address,
		},
		Courier:        domain.Courier(req.Courier),
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *service.ProductNotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error:     "product not found",
			Code:      "product_not_found",
			ProductID: notFound.ProductID,
		})
		return
	}

	var insufficient *repository.InsufficientStockError
	if errors.As(err, &insufficient) {
		respondJSON(w, http.StatusBadRequest, StockErrorResponse{
			Error:     "insufficient stock",
			Code:      "insufficient_stock",
			ProductID: insufficient.ProductID,
			Requested: insufficient.Requested,
			Available: insufficient.Available,
		})
		return
	}

	if errors.Is(err, service.ErrEmptyCheckout) || errors.Is(err, service.ErrInvalidQuantity) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.logger.Error("checkout failed",
		zap.String("request_id", getRequestID(r.Context())),
		zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to process checkout")
}
