package app

import (
	"fmt"

	"github.com/allisson/commerce-saga/internal/http"
	"github.com/allisson/commerce-saga/internal/messaging"
	"github.com/allisson/commerce-saga/internal/metrics"

	outboxRepository "github.com/allisson/commerce-saga/internal/outbox/repository"
	outboxUsecase "github.com/allisson/commerce-saga/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		repo, err := c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
			return
		}
		c.outboxRepo = repo
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the outbox relay instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		useCase, err := c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}
		c.outboxUseCase = useCase
	})
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// AMQPClient returns the broker client with the topology declared.
func (c *Container) AMQPClient() (*messaging.AMQPClient, error) {
	c.amqpClientInit.Do(func() {
		client, err := c.initAMQPClient()
		if err != nil {
			c.initErrors["amqpClient"] = err
			return
		}
		c.amqpClient = client
	})
	if storedErr, exists := c.initErrors["amqpClient"]; exists {
		return nil, storedErr
	}
	return c.amqpClient, nil
}

// Consumer returns the command consumer instance.
func (c *Container) Consumer() (*messaging.Consumer, error) {
	c.consumerInit.Do(func() {
		consumer, err := c.initConsumer()
		if err != nil {
			c.initErrors["consumer"] = err
			return
		}
		c.consumer = consumer
	})
	if storedErr, exists := c.initErrors["consumer"]; exists {
		return nil, storedErr
	}
	return c.consumer, nil
}

// MetricsProvider returns the metrics provider. Returns nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// SagaMetrics returns the saga metrics recorder. A no-op implementation is
// returned when metrics are disabled.
func (c *Container) SagaMetrics() (metrics.SagaMetrics, error) {
	c.sagaMetricsInit.Do(func() {
		sagaMetrics, err := c.initSagaMetrics()
		if err != nil {
			c.initErrors["sagaMetrics"] = err
			return
		}
		c.sagaMetrics = sagaMetrics
	})
	if storedErr, exists := c.initErrors["sagaMetrics"]; exists {
		return nil, storedErr
	}
	return c.sagaMetrics, nil
}

// MessagingMetrics returns the messaging metrics recorder. A no-op
// implementation is returned when metrics are disabled.
func (c *Container) MessagingMetrics() (metrics.MessagingMetrics, error) {
	c.messagingMetricsInit.Do(func() {
		messagingMetrics, err := c.initMessagingMetrics()
		if err != nil {
			c.initErrors["messagingMetrics"] = err
			return
		}
		c.messagingMetrics = messagingMetrics
	})
	if storedErr, exists := c.initErrors["messagingMetrics"]; exists {
		return nil, storedErr
	}
	return c.messagingMetrics, nil
}

// MetricsServer returns the metrics and health HTTP server.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		server, err := c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = server
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxUseCase creates the outbox relay with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	amqpClient, err := c.AMQPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get amqp client for outbox use case: %w", err)
	}

	messagingMetrics, err := c.MessagingMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging metrics for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:          c.config.OutboxInterval,
		BatchSize:         c.config.OutboxBatchSize,
		MaxRetries:        c.config.OutboxMaxRetries,
		PublishRatePerSec: c.config.OutboxPublishRatePerSec,
	}

	eventProcessor := outboxUsecase.NewAMQPEventProcessor(amqpClient, messagingMetrics, logger)
	useCase := outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger)

	return useCase, nil
}

// initAMQPClient creates the broker client.
func (c *Container) initAMQPClient() (*messaging.AMQPClient, error) {
	client, err := messaging.NewAMQPClient(messaging.AMQPConfig{
		URL:            c.config.BrokerURL,
		Exchange:       c.config.BrokerExchange,
		PrefetchCount:  c.config.BrokerPrefetchCount,
		ConnectRetries: c.config.BrokerConnectRetries,
	}, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create amqp client: %w", err)
	}
	return client, nil
}

// initConsumer creates the command consumer with all its dependencies.
func (c *Container) initConsumer() (*messaging.Consumer, error) {
	amqpClient, err := c.AMQPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get amqp client for consumer: %w", err)
	}

	router, err := c.Router()
	if err != nil {
		return nil, fmt.Errorf("failed to get router for consumer: %w", err)
	}

	messagingMetrics, err := c.MessagingMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging metrics for consumer: %w", err)
	}

	return messaging.NewConsumer(amqpClient, router, c.Logger(), messagingMetrics), nil
}

// initSagaMetrics creates the saga metrics recorder.
func (c *Container) initSagaMetrics() (metrics.SagaMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for saga metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpSagaMetrics(), nil
	}
	return metrics.NewSagaMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initMessagingMetrics creates the messaging metrics recorder.
func (c *Container) initMessagingMetrics() (metrics.MessagingMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for messaging metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpMessagingMetrics(), nil
	}
	return metrics.NewMessagingMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initMetricsServer creates the metrics and health HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.MetricsHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
