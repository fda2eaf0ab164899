package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/cache"
	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/observability"
	"github.com/dairymilkyway/Artstr/internal/repository"
	"github.com/dairymilkyway/Artstr/internal/service"
)

// --- repository stubs ---

type stubProducts struct {
	products map[string]*domain.Product
	listErr  error
}

func newStubProducts(products ...*domain.Product) *stubProducts {
	s := &stubProducts{products: make(map[string]*domain.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubProducts) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubProducts) GetProducts(_ context.Context, productIDs []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product)
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *stubProducts) ListProducts(_ context.Context) ([]domain.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProducts) Reserve(_ context.Context, productID string, quantity int) error {
	p, ok := s.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stocks < quantity {
		return &repository.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: p.Stocks,
		}
	}
	p.Stocks -= quantity
	return nil
}

func (s *stubProducts) Release(_ context.Context, productID string, quantity int) error {
	if p, ok := s.products[productID]; ok {
		p.Stocks += quantity
	}
	return nil
}

type stubOrders struct {
	orders    map[string]*domain.Order
	createErr error
}

func newStubOrders() *stubOrders {
	return &stubOrders{orders: make(map[string]*domain.Order)}
}

func (s *stubOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *stubOrders) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *stubOrders) GetOrderByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	for _, order := range s.orders {
		if order.UserID == userID && order.IdempotencyKey == key {
			cp := *order
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (s *stubOrders) ListOrdersByUser(_ context.Context, userID string, page, limit int) ([]domain.Order, int64, error) {
	var out []domain.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubOrders) Transition(_ context.Context, orderID string, next domain.OrderStatus, now time.Time) (*domain.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, &repository.InvalidTransitionError{OrderID: orderID, From: order.Status, To: next}
	}
	order.Status = next
	if next == domain.StatusDelivered {
		order.DeliveredAt = &now
	}
	cp := *order
	return &cp, nil
}

type stubCarts struct{}

func (stubCarts) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	return nil, repository.ErrCartNotFound
}
func (stubCarts) AddItem(_ context.Context, _ string, _ domain.CartItem) error { return nil }

func (stubCarts) UpdateItemQuantity(_ context.Context, _, _ string, _ int) error { return nil }

func (stubCarts) RemoveItem(_ context.Context, _, _ string) error { return nil }

func (stubCarts) ClearCart(_ context.Context, _ string) error { return nil }

func (stubCarts) RemoveItems(_ context.Context, _ string, _ []string) error { return nil }

// memCarts is a functional in-memory cart store for handler tests.
type memCarts struct {
	carts map[string]*domain.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[string]*domain.Cart)}
}

func (m *memCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (m *memCarts) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	cart, ok := m.carts[userID]
	if !ok {
		now := time.Now()
		cart = &domain.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}
		m.carts[userID] = cart
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (m *memCarts) UpdateItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *memCarts) RemoveItem(_ context.Context, userID, productID string) error {
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *memCarts) ClearCart(_ context.Context, userID string) error {
	if cart, ok := m.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

func (m *memCarts) RemoveItems(_ context.Context, userID string, productIDs []string) error {
	cart, ok := m.carts[userID]
	if !ok {
		return nil
	}
	drop := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	var kept []domain.CartItem
	for _, item := range cart.Items {
		if !drop[item.ProductID] {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

type noopCache struct{}

func (noopCache) Get(_ context.Context, _ string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}
func (noopCache) Set(_ context.Context, _ string, _ *domain.Cart) error { return nil }

func (noopCache) Delete(_ context.Context, _ string) error { return nil }

// --- handler builders ---

func newCheckoutTestHandler(products repository.ProductRepository, orders repository.OrderRepository) *CheckoutHandler {
	carts := service.NewCartService(stubCarts{}, products, noopCache{}, zap.NewNop())
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	svc := service.NewCheckoutService(products, orders, carts, metrics, zap.NewNop())
	return NewCheckoutHandler(svc, zap.NewNop())
}

func newCartTestHandler(products repository.ProductRepository, repo repository.CartRepository) *CartHandler {
	carts := service.NewCartService(repo, products, noopCache{}, zap.NewNop())
	return NewCartHandler(carts, zap.NewNop())
}

func newOrdersTestHandler(products repository.ProductRepository, orders repository.OrderRepository) *OrdersHandler {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	orderSvc := service.NewOrderService(orders, products, zap.NewNop())
	statusSvc := service.NewStatusService(orders, metrics, zap.NewNop())
	return NewOrdersHandler(orderSvc, statusSvc, zap.NewNop())
}

// --- request helpers ---

func withUser(r *http.Request, userID, role string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, userRoleKey, role)
	return r.WithContext(ctx)
}

func withOrderID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("order_id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
