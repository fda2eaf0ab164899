package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// OrderItemDetail pairs a frozen order line with the product's current
// photos for display. Prices and names on the line stay as snapshotted at
// checkout time.
type OrderItemDetail struct {
	domain.OrderItem
	Photos []string `json:"photos"`
}

type OrderDetail struct {
	domain.Order
	Items []OrderItemDetail `json:"items"`
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		logger:   logger,
	}
}

// ListUserOrders returns the caller's own orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return s.orders.ListOrdersByUser(ctx, userID, page, limit)
}

// GetOrder returns one of the caller's orders with product photos resolved.
// Another user's order is indistinguishable from a missing one.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*OrderDetail, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}

	productIDs := make([]string, len(order.Items))
	for i, item := range order.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.products.GetProducts(ctx, productIDs)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		// Photos are display sugar; the order itself is still served.
		s.logger.Warn("failed to resolve products for order display",
			zap.String("order_id", orderID), zap.Error(err))
		products = nil
	}

	detail := &OrderDetail{Order: *order, Items: make([]OrderItemDetail, len(order.Items))}
	for i, item := range order.Items {
		d := OrderItemDetail{OrderItem: item}
		if product, ok := products[item.ProductID]; ok {
			d.Photos = product.Photos
		}
		detail.Items[i] = d
	}

	return detail, nil
}
