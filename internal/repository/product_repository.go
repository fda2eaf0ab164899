package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dairymilkyway/Artstr/internal/domain"
)

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection("products"),
	}
}

func (p *productRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product

	err := p.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (p *productRepository) GetProducts(ctx context.Context, productIDs []string) (map[string]*domain.Product, error) {
	cursor, err := p.collection.Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]*domain.Product, len(productIDs))
	for cursor.Next(ctx) {
		var product domain.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		result[product.ID] = &product
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return result, nil
}

func (p *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	cursor, err := p.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// Reserve performs the check-and-decrement as one conditional update so that
// concurrent reservations can never oversell: the filter only matches while
// at least quantity units remain.
func (p *productRepository) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	filter := bson.M{
		"_id":    productID,
		"stocks": bson.M{"$gte": quantity},
	}
	update := bson.M{"$inc": bson.M{"stocks": -quantity}}

	result, err := p.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	if result.ModifiedCount == 1 {
		return nil
	}

	// Nothing matched: the product is either missing or short on stock.
	product, err := p.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return &InsufficientStockError{
		ProductID: productID,
		Requested: quantity,
		Available: product.Stocks,
	}
}

// Release restores previously reserved units. Idempotency against
// double-release is owned by callers: checkout only releases lines it
// reserved in the same request, and cancellation flips the order's
// stock_released flag under the transition transaction.
func (p *productRepository) Release(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	result, err := p.collection.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{"stocks": quantity}},
	)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}
