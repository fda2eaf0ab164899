package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dairymilkyway/Artstr/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrOrderNotFound   = errors.New("order not found")
)

// InsufficientStockError reports a failed reservation together with what was
// actually available, so the caller can surface both quantities.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError reports a rejected order status change.
type InvalidTransitionError struct {
	OrderID string
	From    domain.OrderStatus
	To      domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot transition from %s to %s", e.OrderID, e.From, e.To)
}

// ProductRepository is the inventory ledger plus read-only catalog lookups.
// Consumers define this interface, not the MongoDB implementation.
type ProductRepository interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	GetProducts(ctx context.Context, productIDs []string) (map[string]*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// Reserve atomically decrements stock if at least quantity units are
	// available. Either the full quantity is reserved or nothing is.
	Reserve(ctx context.Context, productID string, quantity int) error
	// Release is the compensating inverse of Reserve.
	Release(ctx context.Context, productID string, quantity int) error
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID string) error
	ClearCart(ctx context.Context, userID string) error
	// RemoveItems drops every line whose product id is in productIDs,
	// leaving all other lines untouched. Missing cart is a no-op.
	RemoveItems(ctx context.Context, userID string, productIDs []string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, page, limit int) ([]domain.Order, int64, error)
	// Transition moves the order to next, writing the status change and its
	// outbox event in one transaction. Cancellation restores the order's
	// reserved stock inside the same transaction, at most once.
	Transition(ctx context.Context, orderID string, next domain.OrderStatus, now time.Time) (*domain.Order, error)
}

// OutboxEvent is a pending notification payload written in the same
// transaction as the state change that produced it.
type OutboxEvent struct {
	ID          string    `bson:"_id"`
	AggregateID string    `bson:"aggregate_id"`
	EventType   string    `bson:"event_type"`
	Payload     []byte    `bson:"payload"`
	Processed   bool      `bson:"processed"`
	CreatedAt   time.Time `bson:"created_at"`
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID string) error
}
