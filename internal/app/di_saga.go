package app

import (
	"fmt"

	customerRepository "github.com/allisson/commerce-saga/internal/customer/repository"
	orderRepository "github.com/allisson/commerce-saga/internal/order/repository"
	productRepository "github.com/allisson/commerce-saga/internal/product/repository"
	sagaRepository "github.com/allisson/commerce-saga/internal/saga/repository"
	sagaUsecase "github.com/allisson/commerce-saga/internal/saga/usecase"
)

// CustomerRepository returns the customer repository instance.
func (c *Container) CustomerRepository() (sagaUsecase.CustomerRepository, error) {
	c.customerRepoInit.Do(func() {
		repo, err := c.initCustomerRepository()
		if err != nil {
			c.initErrors["customerRepo"] = err
			return
		}
		c.customerRepo = repo
	})
	if storedErr, exists := c.initErrors["customerRepo"]; exists {
		return nil, storedErr
	}
	return c.customerRepo, nil
}

// ProductRepository returns the product repository instance.
func (c *Container) ProductRepository() (sagaUsecase.ProductRepository, error) {
	c.productRepoInit.Do(func() {
		repo, err := c.initProductRepository()
		if err != nil {
			c.initErrors["productRepo"] = err
			return
		}
		c.productRepo = repo
	})
	if storedErr, exists := c.initErrors["productRepo"]; exists {
		return nil, storedErr
	}
	return c.productRepo, nil
}

// OrderRepository returns the order repository instance.
func (c *Container) OrderRepository() (sagaUsecase.OrderRepository, error) {
	c.orderRepoInit.Do(func() {
		repo, err := c.initOrderRepository()
		if err != nil {
			c.initErrors["orderRepo"] = err
			return
		}
		c.orderRepo = repo
	})
	if storedErr, exists := c.initErrors["orderRepo"]; exists {
		return nil, storedErr
	}
	return c.orderRepo, nil
}

// InstanceRepository returns the saga instance repository.
func (c *Container) InstanceRepository() (sagaUsecase.InstanceRepository, error) {
	c.instanceRepoInit.Do(func() {
		repo, err := c.initInstanceRepository()
		if err != nil {
			c.initErrors["instanceRepo"] = err
			return
		}
		c.instanceRepo = repo
	})
	if storedErr, exists := c.initErrors["instanceRepo"]; exists {
		return nil, storedErr
	}
	return c.instanceRepo, nil
}

// Router returns the saga router with all three processors wired.
func (c *Container) Router() (*sagaUsecase.Router, error) {
	c.routerInit.Do(func() {
		router, err := c.initRouter()
		if err != nil {
			c.initErrors["router"] = err
			return
		}
		c.router = router
	})
	if storedErr, exists := c.initErrors["router"]; exists {
		return nil, storedErr
	}
	return c.router, nil
}

// initCustomerRepository creates the customer repository instance.
func (c *Container) initCustomerRepository() (sagaUsecase.CustomerRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for customer repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return customerRepository.NewMySQLCustomerRepository(db), nil
	case "postgres":
		return customerRepository.NewPostgreSQLCustomerRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initProductRepository creates the product repository instance.
func (c *Container) initProductRepository() (sagaUsecase.ProductRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for product repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return productRepository.NewMySQLProductRepository(db), nil
	case "postgres":
		return productRepository.NewPostgreSQLProductRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrderRepository creates the order repository instance.
func (c *Container) initOrderRepository() (sagaUsecase.OrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for order repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return orderRepository.NewMySQLOrderRepository(db), nil
	case "postgres":
		return orderRepository.NewPostgreSQLOrderRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initInstanceRepository creates the saga instance repository.
func (c *Container) initInstanceRepository() (sagaUsecase.InstanceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for instance repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return sagaRepository.NewMySQLInstanceRepository(db), nil
	case "postgres":
		return sagaRepository.NewPostgreSQLInstanceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRouter creates the saga router with all its dependencies.
func (c *Container) initRouter() (*sagaUsecase.Router, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for router: %w", err)
	}

	instanceRepo, err := c.InstanceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get instance repository for router: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for router: %w", err)
	}

	customerRepo, err := c.CustomerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get customer repository for router: %w", err)
	}

	productRepo, err := c.ProductRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get product repository for router: %w", err)
	}

	orderRepo, err := c.OrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get order repository for router: %w", err)
	}

	sagaMetrics, err := c.SagaMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get saga metrics for router: %w", err)
	}

	return sagaUsecase.NewRouter(
		txManager,
		instanceRepo,
		outboxRepo,
		sagaUsecase.NewCustomerCreationSaga(customerRepo),
		sagaUsecase.NewOrderCreationSaga(customerRepo, productRepo, orderRepo),
		sagaUsecase.NewOrderStatusSaga(orderRepo),
		sagaMetrics,
		c.Logger(),
	), nil
}
