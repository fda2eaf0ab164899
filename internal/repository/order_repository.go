package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dairymilkyway/Artstr/internal/domain"
)

const statusEventType = "order.status_updated"

// StatusEvent is the outbox payload emitted on every successful transition.
type StatusEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

type orderRepository struct {
	client   *mongo.Client
	orders   *mongo.Collection
	products *mongo.Collection
	outbox   *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		client:   db.Client(),
		orders:   db.Collection("orders"),
		products: db.Collection("products"),
		outbox:   db.Collection("outbox"),
	}
}

// IsDuplicateKey reports whether err is a unique index violation, which is
// how a concurrent checkout retry with the same idempotency key surfaces.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		if IsDuplicateKey(err) {
			return err
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order

	err := r.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) GetOrderByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	var order domain.Order

	filter := bson.M{"user_id": userID, "idempotency_key": key}
	err := r.orders.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to look up order by idempotency key: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID string, page, limit int) ([]domain.Order, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.orders.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "placed_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]domain.Order, 0, limit)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, total, nil
}

// Transition commits the status change, the compensating stock release on
// cancellation, and the notification outbox event in a single transaction.
// The status filter is conditional on the previously observed status so a
// concurrent transition loses cleanly instead of double-applying.
func (r *orderRepository) Transition(ctx context.Context, orderID string, next domain.OrderStatus, now time.Time) (*domain.Order, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var order domain.Order
		if err := r.orders.FindOne(sc, bson.M{"_id": orderID}).Decode(&order); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("failed to load order: %w", err)
		}

		if !order.Status.CanTransitionTo(next) {
			return nil, &InvalidTransitionError{OrderID: orderID, From: order.Status, To: next}
		}

		set := bson.M{"status": next}
		unset := bson.M{}

		switch next {
		case domain.StatusDelivered:
			set["delivered_at"] = now
		case domain.StatusCanceled:
			unset["delivered_at"] = ""
		}

		if next == domain.StatusCanceled && !order.StockReleased {
			// Canceled stock goes back on sale. The flag makes the release
			// happen at most once even if this transaction is retried.
			for _, item := range order.Items {
				_, err := r.products.UpdateOne(sc,
					bson.M{"_id": item.ProductID},
					bson.M{"$inc": bson.M{"stocks": item.Quantity}},
				)
				if err != nil {
					return nil, fmt.Errorf("failed to restore stock for product %s: %w", item.ProductID, err)
				}
			}
			set["stock_released"] = true
		}

		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}

		res, err := r.orders.UpdateOne(sc, bson.M{"_id": orderID, "status": order.Status}, update)
		if err != nil {
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
		if res.MatchedCount == 0 {
			// Lost a race with another transition; the reloaded status tells
			// the caller what it actually conflicted with.
			return nil, &InvalidTransitionError{OrderID: orderID, From: order.Status, To: next}
		}

		payload, err := json.Marshal(StatusEvent{
			OrderID:   orderID,
			UserID:    order.UserID,
			Status:    next.String(),
			Name:      order.Shipping.Name,
			Email:     order.Shipping.Email,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal status event: %w", err)
		}

		event := OutboxEvent{
			ID:          uuid.New().String(),
			AggregateID: orderID,
			EventType:   statusEventType,
			Payload:     payload,
			Processed:   false,
			CreatedAt:   now,
		}
		if _, err := r.outbox.InsertOne(sc, event); err != nil {
			return nil, fmt.Errorf("failed to insert outbox event: %w", err)
		}

		order.Status = next
		switch next {
		case domain.StatusDelivered:
			order.DeliveredAt = &now
		case domain.StatusCanceled:
			order.DeliveredAt = nil
			order.StockReleased = true
		}
		return &order, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*domain.Order), nil
}
