package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dairymilkyway/Artstr/internal/cache"
	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/repository"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	logger   *zap.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(
	repo repository.CartRepository,
	products repository.ProductRepository,
	cartCache cache.CartCache,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
		logger:   logger,
	}
}

// GetCart returns the user's cart, or an empty one if none has been created
// yet. Carts come into existence lazily on the first add.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now()
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), userID, cart); err != nil {
				s.logger.Warn("cart cache set failed", zap.String("user_id", userID), zap.Error(err))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem puts quantity units of the product in the cart, merging with an
// existing line. The product must exist in the catalog.
func (s *CartService) AddItem(ctx context.Context, userID string, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ProductNotFoundError{ProductID: productID}
		}
		return err
	}

	if err := s.repo.AddItem(ctx, userID, domain.CartItem{ProductID: productID, Quantity: quantity}); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, productID string) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// PruneCheckedOut removes exactly the purchased product lines, preserving
// every other line and its quantity. A user with no cart is a no-op.
func (s *CartService) PruneCheckedOut(ctx context.Context, userID string, productIDs []string) error {
	if err := s.repo.RemoveItems(ctx, userID, productIDs); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	go func() {
		if err := s.cache.Delete(context.Background(), userID); err != nil {
			s.logger.Warn("cart cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}
