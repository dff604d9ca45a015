package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig holds the configuration for the AMQP client.
type AMQPConfig struct {
	URL            string
	Exchange       string
	PrefetchCount  int
	ConnectRetries int
}

// AMQPClient wraps an AMQP connection with the exchange and command queue
// topology declared.
type AMQPClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  AMQPConfig
	logger  *slog.Logger
}

// commandBindings maps each command queue to its routing key.
var commandBindings = map[string]string{
	QueueCreateCustomer:    RoutingKeyCreateCustomer,
	QueueCreateOrder:       RoutingKeyCreateOrder,
	QueueChangeOrderStatus: RoutingKeyChangeOrderStatus,
}

// NewAMQPClient connects to the broker with retry and exponential backoff,
// declares the topic exchange, and declares and binds the durable command
// queues.
func NewAMQPClient(config AMQPConfig, logger *slog.Logger) (*AMQPClient, error) {
	if config.Exchange == "" {
		return nil, fmt.Errorf("exchange name cannot be empty")
	}

	retries := config.ConnectRetries
	if retries <= 0 {
		retries = 1
	}

	var conn *amqp.Connection
	var err error
	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(config.URL)
		if err == nil {
			break
		}
		retryTime := time.Duration(i*i)*time.Second + time.Second
		logger.Warn("failed to connect to broker, retrying",
			slog.Duration("retry_in", retryTime),
			slog.Any("error", err),
		)
		time.Sleep(retryTime)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker after retries: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		config.Exchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", config.Exchange, err)
	}

	for queueName, routingKey := range commandBindings {
		q, err := channel.QueueDeclare(
			queueName, // name
			true,      // durable
			false,     // delete when unused
			false,     // exclusive
			false,     // no-wait
			nil,       // arguments
		)
		if err != nil {
			_ = channel.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
		}

		err = channel.QueueBind(
			q.Name,          // queue name
			routingKey,      // routing key
			config.Exchange, // exchange
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			_ = channel.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("failed to bind queue %s to exchange %s: %w",
				queueName, config.Exchange, err)
		}
	}

	return &AMQPClient{
		conn:    conn,
		channel: channel,
		config:  config,
		logger:  logger,
	}, nil
}

// Close closes the AMQP channel and connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish publishes a message as persistent JSON to the configured exchange
// with the given routing key.
func (c *AMQPClient) Publish(ctx context.Context, routingKey string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.PublishRaw(ctx, routingKey, messageBytes)
}

// PublishRaw publishes an already-encoded JSON body as a persistent message.
func (c *AMQPClient) PublishRaw(ctx context.Context, routingKey string, body []byte) error {
	err := c.channel.PublishWithContext(
		ctx,
		c.config.Exchange, // exchange
		routingKey,        // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to exchange %s with routing key %s: %w",
			c.config.Exchange, routingKey, err)
	}
	return nil
}

// Consume opens a dedicated channel with the configured prefetch count and
// returns the delivery stream for the queue. Deliveries must be acked or
// nacked by the caller; auto-ack is disabled so a crashed worker triggers
// redelivery.
func (c *AMQPClient) Consume(queueName string) (<-chan amqp.Delivery, func() error, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	prefetch := c.config.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}

	err = ch.Qos(
		prefetch, // prefetch count
		0,        // prefetch size
		false,    // global
	)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to start consuming from queue %s: %w", queueName, err)
	}

	return msgs, ch.Close, nil
}
