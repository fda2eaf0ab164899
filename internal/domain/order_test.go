package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to delivered", StatusPending, StatusDelivered, true},
		{"pending to canceled", StatusPending, StatusCanceled, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"delivered to canceled", StatusDelivered, StatusCanceled, false},
		{"delivered to pending", StatusDelivered, StatusPending, false},
		{"delivered to delivered", StatusDelivered, StatusDelivered, false},
		{"canceled to delivered", StatusCanceled, StatusDelivered, false},
		{"canceled to pending", StatusCanceled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, status)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)

	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}

func TestShippingFeeCents(t *testing.T) {
	assert.Equal(t, int64(1000), ShippingFeeCents(CourierJTExpress))
	assert.Equal(t, int64(1500), ShippingFeeCents(CourierNinjaVan))

	// Unknown couriers ship for free.
	assert.Equal(t, int64(0), ShippingFeeCents(Courier("Carrier Pigeon")))
	assert.Equal(t, int64(0), ShippingFeeCents(Courier("")))
}
