package service

import (
	"errors"
	"fmt"

	"github.com/dairymilkyway/Artstr/internal/repository"
)

var (
	ErrEmptyCheckout   = errors.New("checkout requires at least one line item")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// ProductNotFoundError names the offending product so the handler can echo
// it back to the caller.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return repository.ErrProductNotFound
}
