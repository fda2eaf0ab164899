package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/repository"
)

// reserveAll reserves each line in request order, releasing every earlier
// reservation if a later line fails. Lines are processed strictly in
// sequence so a failing line aborts before the next begins.
func (s *CheckoutService) reserveAll(ctx context.Context, items []CheckoutItem) ([]CheckoutItem, error) {
	reserved := make([]CheckoutItem, 0, len(items))

	for _, item := range items {
		if err := s.products.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			s.releaseAll(ctx, reserved)

			var insufficient *repository.InsufficientStockError
			if errors.As(err, &insufficient) {
				s.metrics.StockConflictsTotal.Inc()
				return nil, err
			}
			if errors.Is(err, repository.ErrProductNotFound) {
				// The product vanished between pre-flight and reserve.
				return nil, &ProductNotFoundError{ProductID: item.ProductID}
			}
			return nil, fmt.Errorf("failed to reserve product %s: %w", item.ProductID, err)
		}
		reserved = append(reserved, item)
	}

	return reserved, nil
}

// releaseAll is the compensating path: it returns every given reservation to
// the available pool, in reverse order. Failures are logged and the rest are
// still attempted.
func (s *CheckoutService) releaseAll(ctx context.Context, reserved []CheckoutItem) {
	for i := len(reserved) - 1; i >= 0; i-- {
		item := reserved[i]
		if err := s.products.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("failed to release reserved stock",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}
