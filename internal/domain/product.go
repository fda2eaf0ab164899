package domain

import "time"

// Product is owned by the catalog; checkout only reads it and atomically
// decrements Stocks through the repository's Reserve operation.
type Product struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	PriceCents int64     `bson:"price_cents" json:"price_cents"`
	Category   string    `bson:"category" json:"category"`
	Details    string    `bson:"details,omitempty" json:"details,omitempty"`
	Photos     []string  `bson:"photos,omitempty" json:"photos,omitempty"`
	Stocks     int       `bson:"stocks" json:"stocks"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
