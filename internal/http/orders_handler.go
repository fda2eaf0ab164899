package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/repository"
	"github.com/dairymilkyway/Artstr/internal/service"
)

type OrdersHandler struct {
	orders *service.OrderService
	status *service.StatusService
	logger *zap.Logger
}

func NewOrdersHandler(orders *service.OrderService, status *service.StatusService, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders: orders,
		status: status,
		logger: logger,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type OrderListResponseDTO struct {
	Orders []domain.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// GET /api/orders/user-orders?page&limit
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, total, err := h.orders.ListUserOrders(r.Context(), userID, page, limit)
	if err != nil {
		h.logger.Error("failed to list orders",
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	respondJSON(w, http.StatusOK, OrderListResponseDTO{
		Orders: orders,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

// GET /api/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order_not_found", "order not found")
			return
		}
		h.logger.Error("failed to get order",
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("order_id", orderID),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get order")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// PUT /api/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}
	if next == domain.StatusPending {
		respondError(w, http.StatusBadRequest, "invalid_status", "orders cannot be moved back to pending")
		return
	}

	order, err := h.status.SetStatus(r.Context(), orderID, next)
	if err != nil {
		var invalid *repository.InvalidTransitionError
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		case errors.As(err, &invalid):
			respondError(w, http.StatusConflict, "invalid_transition", invalid.Error())
		default:
			h.logger.Error("failed to update order status",
				zap.String("request_id", getRequestID(r.Context())),
				zap.String("order_id", orderID),
				zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order status")
		}
		return
	}

	respondJSON(w, http.StatusOK, order)
}
