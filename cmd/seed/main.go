package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/app"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
)

const seedTimeout = 30 * time.Second

// Демо-набор данных для локальной разработки и ручной проверки сервиса.
var (
	seedCustomers = []crm.CreateCustomerInput{
		{Name: "Alice Johnson", Email: "alice@example.com", Phone: "+1234567890"},
		{Name: "Bob Smith", Email: "bob@example.com", Phone: "123-456-7890"},
	}

	seedProducts = []crm.CreateProductInput{
		{Name: "Laptop", Price: "999.99", Stock: int32Ptr(10)},
		{Name: "Mouse", Price: "25.50", Stock: int32Ptr(100)},
		{Name: "Keyboard", Price: "45.00", Stock: int32Ptr(50)},
	}
)

// seedReport фиксирует, сколько записей реально было создано за прогон.
type seedReport struct {
	Customers int
	Products  int
	Orders    int
}

func int32Ptr(v int32) *int32 {
	return &v
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: CRM_POSTGRES_DSN; empty = in-memory dry run)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("CRM_POSTGRES_DSN"))
	}

	cfg := app.DefaultConfig()
	cfg.PostgresDSN = dsn

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	logger := log.WithField("component", "seed")
	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize dependencies")
	}
	defer func() {
		_ = deps.Close()
	}()

	report, err := seed(ctx, deps)
	if err != nil {
		logger.WithError(err).Fatal("seeding failed")
	}

	logger.WithFields(log.Fields{
		"customers": report.Customers,
		"products":  report.Products,
		"orders":    report.Orders,
	}).Info("seeding finished")

	if dsn == "" {
		logger.Warn("не задан CRM_POSTGRES_DSN: данные записаны во временное in-memory хранилище")
	}
}

// seed наполняет хранилище демо-данными через мутационные сервисы.
// Повторный запуск идемпотентен: существующие записи пропускаются.
func seed(ctx context.Context, deps *app.Dependencies) (seedReport, error) {
	var report seedReport

	for _, input := range seedCustomers {
		result := deps.Customers.CreateCustomer(ctx, input)
		if result.Success {
			report.Customers++
			continue
		}
		if isDuplicateEmail(result.Errors) {
			continue
		}
		return report, fmt.Errorf("create customer %q: %s", input.Email, strings.Join(result.Errors, "; "))
	}

	existingProducts, err := deps.Queries.Products()
	if err != nil {
		return report, fmt.Errorf("list products: %w", err)
	}
	knownNames := make(map[string]struct{}, len(existingProducts))
	for _, product := range existingProducts {
		knownNames[product.Name] = struct{}{}
	}

	for _, input := range seedProducts {
		if _, ok := knownNames[input.Name]; ok {
			continue
		}
		result := deps.Products.CreateProduct(ctx, input)
		if !result.Success {
			return report, fmt.Errorf("create product %q: %s", input.Name, strings.Join(result.Errors, "; "))
		}
		report.Products++
	}

	created, err := seedDemoOrder(ctx, deps)
	if err != nil {
		return report, err
	}
	if created {
		report.Orders++
	}

	return report, nil
}

// seedDemoOrder оформляет один демонстрационный заказ: первый покупатель
// берёт первые два товара. Если заказы уже есть, ничего не делает.
func seedDemoOrder(ctx context.Context, deps *app.Dependencies) (bool, error) {
	orders, err := deps.Queries.Orders()
	if err != nil {
		return false, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) > 0 {
		return false, nil
	}

	customers, err := deps.Queries.Customers()
	if err != nil {
		return false, fmt.Errorf("list customers: %w", err)
	}
	products, err := deps.Queries.Products()
	if err != nil {
		return false, fmt.Errorf("list products: %w", err)
	}
	if len(customers) == 0 || len(products) < 2 {
		return false, errors.New("not enough seeded records to build a demo order")
	}

	result := deps.Orders.CreateOrder(ctx, crm.CreateOrderInput{
		CustomerID: customers[0].ID,
		ProductIDs: []string{products[0].ID, products[1].ID},
	})
	if !result.Success {
		return false, fmt.Errorf("create demo order: %s", strings.Join(result.Errors, "; "))
	}
	return true, nil
}

func isDuplicateEmail(errs []string) bool {
	for _, e := range errs {
		if e == "Email already exists" {
			return true
		}
	}
	return false
}
