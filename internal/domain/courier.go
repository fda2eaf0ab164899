package domain

type Courier string

const (
	CourierJTExpress Courier = "J&T Express"
	CourierNinjaVan  Courier = "Ninja Van"
)

// shippingFees maps each known courier to its flat fee in cents.
// Couriers outside the table ship for free.
var shippingFees = map[Courier]int64{
	CourierJTExpress: 1000,
	CourierNinjaVan:  1500,
}

// ShippingFeeCents returns the flat surcharge for the chosen courier.
func ShippingFeeCents(c Courier) int64 {
	return shippingFees[c]
}
