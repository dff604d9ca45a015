package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
	"github.com/allisson/commerce-saga/internal/metrics"
)

// CommandHandler routes decoded commands to their owning saga processors.
type CommandHandler interface {
	HandleCreateCustomer(ctx context.Context, cmd CreateCustomerCommand) error
	HandleCreateOrder(ctx context.Context, cmd CreateOrderCommand) error
	HandleChangeOrderStatus(ctx context.Context, cmd ChangeOrderStatusCommand) error
}

// DeliverySource provides delivery streams per queue. Implemented by AMQPClient.
type DeliverySource interface {
	Consume(queueName string) (<-chan amqp.Delivery, func() error, error)
}

// Consumer consumes the three command queues and dispatches deliveries to the
// command handler. Delivery dispositions implement the at-least-once
// contract: ack on success, requeue on infrastructure errors, reject on
// malformed payloads that redelivery cannot fix.
type Consumer struct {
	source  DeliverySource
	handler CommandHandler
	logger  *slog.Logger
	metrics metrics.MessagingMetrics
}

// NewConsumer creates a new Consumer.
func NewConsumer(
	source DeliverySource,
	handler CommandHandler,
	logger *slog.Logger,
	messagingMetrics metrics.MessagingMetrics,
) *Consumer {
	return &Consumer{
		source:  source,
		handler: handler,
		logger:  logger,
		metrics: messagingMetrics,
	}
}

// Start consumes all command queues until the context is cancelled or a
// consumer fails. Queues run concurrently; ordering within one correlation id
// is enforced by the router, not the transport.
func (c *Consumer) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.consumeQueue(ctx, QueueCreateCustomer, func(ctx context.Context, body []byte) error {
			var cmd CreateCustomerCommand
			if err := json.Unmarshal(body, &cmd); err != nil {
				return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
			}
			if err := cmd.Validate(); err != nil {
				return err
			}
			return c.handler.HandleCreateCustomer(ctx, cmd)
		})
	})

	g.Go(func() error {
		return c.consumeQueue(ctx, QueueCreateOrder, func(ctx context.Context, body []byte) error {
			var cmd CreateOrderCommand
			if err := json.Unmarshal(body, &cmd); err != nil {
				return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
			}
			if err := cmd.Validate(); err != nil {
				return err
			}
			return c.handler.HandleCreateOrder(ctx, cmd)
		})
	})

	g.Go(func() error {
		return c.consumeQueue(ctx, QueueChangeOrderStatus, func(ctx context.Context, body []byte) error {
			var cmd ChangeOrderStatusCommand
			if err := json.Unmarshal(body, &cmd); err != nil {
				return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
			}
			if err := cmd.Validate(); err != nil {
				return err
			}
			return c.handler.HandleChangeOrderStatus(ctx, cmd)
		})
	})

	return g.Wait()
}

// consumeQueue consumes a single queue until the context is cancelled or the
// delivery stream closes.
func (c *Consumer) consumeQueue(
	ctx context.Context,
	queue string,
	dispatch func(ctx context.Context, body []byte) error,
) error {
	msgs, closer, err := c.source.Consume(queue)
	if err != nil {
		return err
	}
	defer closer() //nolint:errcheck

	c.logger.Info("consuming queue", slog.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping consumer", slog.String("queue", queue))
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, queue, msg, dispatch)
		}
	}
}

// handleDelivery dispatches one delivery and settles it. A nil error acks the
// delivery. An ErrInvalidInput error rejects it without requeue since
// redelivery cannot repair a malformed payload. Any other error is treated as
// an infrastructure failure: the delivery is requeued and no partial state is
// visible because the unit of work rolled back.
func (c *Consumer) handleDelivery(
	ctx context.Context,
	queue string,
	msg amqp.Delivery,
	dispatch func(ctx context.Context, body []byte) error,
) {
	err := dispatch(ctx, msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack delivery",
				slog.String("queue", queue),
				slog.Any("error", ackErr),
			)
		}
		c.metrics.RecordConsumed(ctx, queue, "ack")
		return
	}

	if apperrors.Is(err, apperrors.ErrInvalidInput) {
		c.logger.Warn("rejecting malformed command",
			slog.String("queue", queue),
			slog.Any("error", err),
		)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to reject delivery",
				slog.String("queue", queue),
				slog.Any("error", nackErr),
			)
		}
		c.metrics.RecordConsumed(ctx, queue, "reject")
		return
	}

	c.logger.Error("command processing failed, requeueing",
		slog.String("queue", queue),
		slog.Any("error", err),
	)
	if nackErr := msg.Nack(false, true); nackErr != nil {
		c.logger.Error("failed to requeue delivery",
			slog.String("queue", queue),
			slog.Any("error", nackErr),
		)
	}
	c.metrics.RecordConsumed(ctx, queue, "requeue")
}
