package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
	"github.com/vladislavdragonenkov/crm/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Store     domain.UnitOfWork
	Customers *crm.CustomerService
	Products  *crm.ProductService
	Orders    *crm.OrderService
	Queries   *crm.QueryService
	Logger    *log.Entry

	// pgStore не nil только при работе поверх PostgreSQL.
	pgStore *postgres.Store
}

// NewDependencies создаёт и инициализирует зависимости приложения.
// При пустом PostgresDSN используется in-memory хранилище — режим для
// локальной разработки и демо.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres store initialized")
		deps.Store = store
		deps.pgStore = store
	} else {
		logger.Info("using in-memory store")
		deps.Store = memory.NewStore()
	}

	deps.Customers = crm.NewCustomerService(deps.Store, logger.WithField("layer", "customer-service"))
	deps.Products = crm.NewProductService(deps.Store, logger.WithField("layer", "product-service"))
	deps.Orders = crm.NewOrderService(deps.Store, logger.WithField("layer", "order-service"))
	deps.Queries = crm.NewQueryService(deps.Store, logger.WithField("layer", "query-service"))

	return deps, nil
}

// Ping проверяет доступность хранилища; для in-memory всегда успешен.
func (d *Dependencies) Ping(ctx context.Context) error {
	if d.pgStore != nil {
		return d.pgStore.Ping(ctx)
	}
	return nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d.pgStore != nil {
		return d.pgStore.Close()
	}
	return nil
}
