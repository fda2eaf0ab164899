package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/cache"
	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/observability"
	"github.com/dairymilkyway/Artstr/internal/repository"
)

func newTestMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

// --- product repository mock ---

// mockProductRepo reserves under a mutex, mirroring the conditional-update
// atomicity of the real store.
type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	reserveCalls []string
	releaseCalls []string
	releaseErr   error
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetProducts(_ context.Context, productIDs []string) (map[string]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]*domain.Product)
	for _, id := range productIDs {
		if p, ok := m.products[id]; ok {
			cp := *p
			result[id] = &cp
		}
	}
	return result, nil
}

func (m *mockProductRepo) ListProducts(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, *p)
	}
	return products, nil
}

func (m *mockProductRepo) Reserve(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls = append(m.reserveCalls, productID)
	p, ok := m.products[productID]
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

func (m *mockProductRepo) Release(_ context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls = append(m.releaseCalls, productID)
	if m.releaseErr != nil {
		return m.releaseErr
	}
	p, ok := m.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stocks += quantity
	return nil
}

func (m *mockProductRepo) stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].Stocks
}

// --- order repository mock ---

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	createErr error
	// products, when set, receives stock released by cancellation.
	products *mockProductRepo
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if order.IdempotencyKey != "" {
		for _, existing := range m.orders {
			if existing.UserID == order.UserID && existing.IdempotencyKey == order.IdempotencyKey {
				return duplicateKeyErr()
			}
		}
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *mockOrderRepo) GetOrderByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.UserID == userID && order.IdempotencyKey == key {
			cp := *order
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepo) ListOrdersByUser(_ context.Context, userID string, page, limit int) ([]domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			all = append(all, *order)
		}
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].PlacedAt.After(all[i].PlacedAt) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *mockOrderRepo) Transition(_ context.Context, orderID string, next domain.OrderStatus, now time.Time) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, &repository.InvalidTransitionError{OrderID: orderID, From: order.Status, To: next}
	}
	order.Status = next
	switch next {
	case domain.StatusDelivered:
		order.DeliveredAt = &now
	case domain.StatusCanceled:
		order.DeliveredAt = nil
		if !order.StockReleased && m.products != nil {
			for _, item := range order.Items {
				_ = m.products.Release(context.Background(), item.ProductID, item.Quantity)
			}
		}
		order.StockReleased = true
	}
	cp := *order
	return &cp, nil
}

// --- cart repository mock ---

type mockCartRepo struct {
	mu   sync.Mutex
	cart *domain.Cart

	pruneCalls [][]string
	pruneErr   error
}

func (m *mockCartRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil || m.cart.UserID != userID {
		return nil, repository.ErrCartNotFound
	}
	cp := *m.cart
	cp.Items = append([]domain.CartItem(nil), m.cart.Items...)
	return &cp, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == item.ProductID {
			m.cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	m.cart.Items = append(m.cart.Items, item)
	return nil
}

func (m *mockCartRepo) UpdateItemQuantity(_ context.Context, _ string, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepo) RemoveItem(_ context.Context, _ string, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	for i, item := range m.cart.Items {
		if item.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepo) ClearCart(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart.Items = nil
	return nil
}

func (m *mockCartRepo) RemoveItems(_ context.Context, _ string, productIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCalls = append(m.pruneCalls, productIDs)
	if m.pruneErr != nil {
		return m.pruneErr
	}
	if m.cart == nil {
		return nil
	}
	drop := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := m.cart.Items[:0]
	for _, item := range m.cart.Items {
		if !drop[item.ProductID] {
			kept = append(kept, item)
		}
	}
	m.cart.Items = kept
	return nil
}

// --- cart cache mock ---

type mockCartCache struct {
	mu      sync.Mutex
	carts   map[string]*domain.Cart
	deletes []string
}

func newMockCartCache() *mockCartCache {
	return &mockCartCache{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (m *mockCartCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = cart
	return nil
}

func (m *mockCartCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, userID)
	delete(m.carts, userID)
	return nil
}

// --- helpers ---

func newTestCartService(repo *mockCartRepo, products *mockProductRepo) *CartService {
	return NewCartService(repo, products, newMockCartCache(), zap.NewNop())
}

func newTestCheckoutService(products *mockProductRepo, orders *mockOrderRepo, carts *CartService) *CheckoutService {
	return NewCheckoutService(products, orders, carts, newTestMetrics(), zap.NewNop())
}
