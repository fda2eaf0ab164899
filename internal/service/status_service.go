package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/domain"
	"github.com/dairymilkyway/Artstr/internal/observability"
	"github.com/dairymilkyway/Artstr/internal/repository"
)

// StatusService drives order fulfillment state. All transition rules live in
// the domain table; the repository commits the transition together with its
// outbox event, and the notification itself is dispatched asynchronously so
// it can never block or roll back the status write.
type StatusService struct {
	orders  repository.OrderRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewStatusService(orders repository.OrderRepository, metrics *observability.Metrics, logger *zap.Logger) *StatusService {
	return &StatusService{
		orders:  orders,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *StatusService) SetStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.Transition(ctx, orderID, next, time.Now().UTC())
	if err != nil {
		var invalid *repository.InvalidTransitionError
		switch {
		case errors.As(err, &invalid):
			s.metrics.TransitionsTotal.WithLabelValues(next.String(), "rejected").Inc()
		case errors.Is(err, repository.ErrOrderNotFound):
			// Not a transition outcome worth counting.
		default:
			s.metrics.TransitionsTotal.WithLabelValues(next.String(), "error").Inc()
		}
		return nil, err
	}

	s.metrics.TransitionsTotal.WithLabelValues(next.String(), "success").Inc()
	s.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("status", next.String()))

	return order, nil
}
