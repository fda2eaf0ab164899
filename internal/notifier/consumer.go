package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dairymilkyway/Artstr/internal/observability"
	"github.com/dairymilkyway/Artstr/internal/publisher"
	"github.com/dairymilkyway/Artstr/internal/repository"
)

// Consumer reads status events off Kafka and dispatches the per-transition
// notifications. Redelivery gives at-least-once semantics; a failed send is
// logged and picked up again on the next delivery of the same message.
type Consumer struct {
	reader  *kafka.Reader
	push    PushSender
	email   EmailSender
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewConsumer(push PushSender, email EmailSender, metrics *observability.Metrics, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.Topic,
		GroupID:  "artstr-notifier",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		reader:  reader,
		push:    push,
		email:   email,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("failed to close kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("failed to read kafka message", zap.Error(err))
		return
	}

	var event repository.StatusEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Error("failed to parse status event", zap.Error(err))
		return
	}

	c.dispatch(ctx, &event)
}

func (c *Consumer) dispatch(ctx context.Context, event *repository.StatusEvent) {
	title := "Transaction Update"
	body := fmt.Sprintf("Your order %q has been %s.", event.Name, event.Status)

	if err := c.push.SendPush(ctx, event.UserID, title, body); err != nil {
		c.metrics.NotificationsTotal.WithLabelValues("push", "error").Inc()
		c.logger.Error("failed to send push notification",
			zap.String("order_id", event.OrderID), zap.Error(err))
	} else {
		c.metrics.NotificationsTotal.WithLabelValues("push", "success").Inc()
	}

	if event.Email == "" {
		return
	}
	subject := fmt.Sprintf("Your Artstr order has been %s", event.Status)
	if err := c.email.SendEmail(ctx, event.Email, subject, body); err != nil {
		c.metrics.NotificationsTotal.WithLabelValues("email", "error").Inc()
		c.logger.Error("failed to send status email",
			zap.String("order_id", event.OrderID), zap.Error(err))
	} else {
		c.metrics.NotificationsTotal.WithLabelValues("email", "success").Inc()
	}
}
