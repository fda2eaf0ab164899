package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusDelivered OrderStatus = "delivered"
	StatusCanceled  OrderStatus = "canceled"
)

// transitions is the closed transition table. Both delivered and canceled
// are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusDelivered, StatusCanceled},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus accepts only members of the closed status set. Status is
// never assigned from a free-form string.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case StatusPending, StatusDelivered, StatusCanceled:
		return OrderStatus(raw), nil
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

type OrderItem struct {
	ProductID      string `bson:"product_id" json:"product_id"`
	ProductName    string `bson:"product_name" json:"product_name"`
	Quantity       int    `bson:"quantity" json:"quantity"`
	UnitPriceCents int64  `bson:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents int64  `bson:"line_total_cents" json:"line_total_cents"`
}

// ShippingInfo is the contact snapshot frozen onto the order at checkout.
type ShippingInfo struct {
	Name        string `bson:"name" json:"name"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`
	Email       string `bson:"email" json:"email"`
	Address     string `bson:"address" json:"address"`
}

// Order is created once at checkout in status pending and mutated only
// through status transitions. Line totals are price snapshots; the order is
// never re-priced.
type Order struct {
	ID               string       `bson:"_id" json:"id"`
	UserID           string       `bson:"user_id" json:"user_id"`
	Items            []OrderItem  `bson:"items" json:"items"`
	TotalCents       int64        `bson:"total_cents" json:"total_cents"`
	ShippingFeeCents int64        `bson:"shipping_fee_cents" json:"shipping_fee_cents"`
	Courier          Courier      `bson:"courier" json:"courier"`
	PaymentMethod    string       `bson:"payment_method" json:"payment_method"`
	Status           OrderStatus  `bson:"status" json:"status"`
	Shipping         ShippingInfo `bson:"shipping" json:"shipping"`
	PlacedAt         time.Time    `bson:"placed_at" json:"placed_at"`
	DeliveredAt      *time.Time   `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	IdempotencyKey   string       `bson:"idempotency_key,omitempty" json:"-"`
	StockReleased    bool         `bson:"stock_released" json:"-"`
}
