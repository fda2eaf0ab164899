package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/observability"
	"github.com/dairymilkyway/Artstr/internal/repository"
)

type CheckoutItem struct {
	ProductID string
	Quantity  int
}

type CheckoutRequest struct {
	Items          []CheckoutItem
	Shipping       domain.ShippingInfo
	Courier        domain.Courier
	PaymentMethod  string
	IdempotencyKey string
}

type CheckoutService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    *CartService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewCheckoutService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	carts *CartService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		products: products,
		orders:   orders,
		carts:    carts,
		metrics:  metrics,
		logger:   logger,
	}
}

// Checkout converts the requested lines into a durable pending order.
// Availability is validated for every line before any stock is reserved, and
// a failure after partial reservation releases what was already taken, so no
// partial reservation ever survives a failed checkout.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req *CheckoutRequest) (*domain.Order, error) {
	start := time.Now()

	if len(req.Items) == 0 {
		return nil, ErrEmptyCheckout
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, ErrInvalidQuantity)
		}
	}

	// A retried submission with the same key returns the already-created
	// order instead of reserving stock twice.
	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetOrderByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			s.logger.Info("duplicate checkout detected",
				zap.String("user_id", userID),
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_id", existing.ID))
			s.metrics.CheckoutsTotal.WithLabelValues("duplicate").Inc()
			return existing, nil
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
	}

	// Pre-flight pass: every product must exist before anything is reserved.
	productIDs := make([]string, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}
	products, err := s.products.GetProducts(ctx, productIDs)
	if err != nil {
		s.metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	for _, item := range req.Items {
		if _, ok := products[item.ProductID]; !ok {
			s.metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
	}

	reserved, err := s.reserveAll(ctx, req.Items)
	if err != nil {
		s.metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	order := buildOrder(userID, req, products)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if repository.IsDuplicateKey(err) && req.IdempotencyKey != "" {
			// Lost the idempotency race to a concurrent retry; this
			// request's reservations are surplus.
			s.releaseAll(ctx, reserved)
			existing, getErr := s.orders.GetOrderByIdempotencyKey(ctx, userID, req.IdempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			s.metrics.CheckoutsTotal.WithLabelValues("duplicate").Inc()
			return existing, nil
		}

		// Never leave stock decremented with no corresponding order.
		s.releaseAll(ctx, reserved)
		s.metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	// Prune only after the order durably exists. A prune failure leaves a
	// stale cart, which is recoverable; it never fails the checkout.
	if err := s.carts.PruneCheckedOut(ctx, userID, productIDs); err != nil {
		s.logger.Error("failed to prune cart after checkout",
			zap.String("user_id", userID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.metrics.CheckoutsTotal.WithLabelValues("success").Inc()
	s.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("order placed",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID),
		zap.Int64("total_cents", order.TotalCents),
		zap.Int("lines", len(order.Items)))

	return order, nil
}

func buildOrder(userID string, req *CheckoutRequest, products map[string]*domain.Product) *domain.Order {
	items := make([]domain.OrderItem, len(req.Items))
	var total int64
	for i, line := range req.Items {
		product := products[line.ProductID]
		lineTotal := product.PriceCents * int64(line.Quantity)
		items[i] = domain.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: lineTotal,
		}
		total += lineTotal
	}

	fee := domain.ShippingFeeCents(req.Courier)

	return &domain.Order{
		ID:               uuid.New().String(),
		UserID:           userID,
		Items:            items,
		TotalCents:       total + fee,
		ShippingFeeCents: fee,
		Courier:          req.Courier,
		PaymentMethod:    req.PaymentMethod,
		Status:           domain.StatusPending,
		Shipping:         req.Shipping,
		PlacedAt:         time.Now().UTC(),
		IdempotencyKey:   req.IdempotencyKey,
	}
}
