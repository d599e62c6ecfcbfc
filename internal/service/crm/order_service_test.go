package crm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

type orderFixture struct {
	store    *memory.Store
	orders   *crm.OrderService
	customer domain.Customer
	laptop   domain.Product
	mouse    domain.Product
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()

	store := memory.NewStore()
	logger := loggerForTests()

	customers := crm.NewCustomerServiceWithoutMetrics(store, logger)
	products := crm.NewProductServiceWithoutMetrics(store, logger)

	created := customers.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.True(t, created.Success)

	laptop := products.CreateProduct(context.Background(), crm.CreateProductInput{Name: "Laptop", Price: "999.99", Stock: int32Ptr(10)})
	require.True(t, laptop.Success)
	mouse := products.CreateProduct(context.Background(), crm.CreateProductInput{Name: "Mouse", Price: "25.50", Stock: int32Ptr(100)})
	require.True(t, mouse.Success)

	return orderFixture{
		store:    store,
		orders:   crm.NewOrderServiceWithoutMetrics(store, logger),
		customer: *created.Customer,
		laptop:   *laptop.Product,
		mouse:    *mouse.Product,
	}
}

func TestCreateOrder_SnapshotTotal(t *testing.T) {
	fx := newOrderFixture(t)

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: []string{fx.laptop.ID, fx.mouse.ID},
	})

	require.True(t, result.Success)
	require.Equal(t, "Order created successfully", result.Message)
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Order)
	require.Equal(t, "1025.49", result.Order.TotalAmount.StringFixed(2))
	require.Equal(t, []string{fx.laptop.ID, fx.mouse.ID}, result.Order.ProductIDs)
	require.False(t, result.Order.OrderDate.IsZero())

	persisted, err := fx.store.Orders().Get(result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, "1025.49", persisted.TotalAmount.StringFixed(2))
}

func TestCreateOrder_DuplicateProductRefsCollapse(t *testing.T) {
	fx := newOrderFixture(t)

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: []string{fx.laptop.ID, fx.laptop.ID, fx.mouse.ID, fx.laptop.ID},
	})

	// Набор товаров заказа — множество: повтор ссылки не удваивает ни сумму,
	// ни связки.
	require.True(t, result.Success)
	require.Equal(t, []string{fx.laptop.ID, fx.mouse.ID}, result.Order.ProductIDs)
	require.Equal(t, "1025.49", result.Order.TotalAmount.StringFixed(2))

	persisted, err := fx.store.Orders().Get(result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, []string{fx.laptop.ID, fx.mouse.ID}, persisted.ProductIDs)
	require.Equal(t, "1025.49", persisted.TotalAmount.StringFixed(2))
}

func TestCreateOrder_ExplicitOrderDate(t *testing.T) {
	fx := newOrderFixture(t)

	orderDate := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: []string{fx.mouse.ID},
		OrderDate:  &orderDate,
	})

	require.True(t, result.Success)
	require.Equal(t, orderDate, result.Order.OrderDate)
}

func TestCreateOrder_EmptyProductList(t *testing.T) {
	fx := newOrderFixture(t)

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: nil,
	})

	require.False(t, result.Success)
	require.Equal(t, "Validation failed", result.Message)
	require.Nil(t, result.Order)
	require.Equal(t, []string{"At least one product must be selected"}, result.Errors)

	orders, err := fx.store.Orders().List()
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreateOrder_AccumulatesAllResolutionErrors(t *testing.T) {
	fx := newOrderFixture(t)

	missingCustomer := "0b68e86a-41f3-4d92-a2c7-6a219b6b4c9d"
	missingProduct := "9d4f2f6e-98a0-4f5c-8f87-3f4f2a1b0c5e"

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: missingCustomer,
		ProductIDs: []string{missingProduct, fx.mouse.ID},
	})

	require.False(t, result.Success)
	require.Nil(t, result.Order)
	require.Equal(t, []string{
		"Customer with ID " + missingCustomer + " does not exist",
		"Product with ID " + missingProduct + " does not exist",
	}, result.Errors)

	orders, err := fx.store.Orders().List()
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreateOrder_MalformedReferences(t *testing.T) {
	fx := newOrderFixture(t)

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: "abc",
		ProductIDs: []string{"xyz"},
	})

	require.False(t, result.Success)
	require.Equal(t, []string{
		"Invalid customer ID: abc",
		"Invalid product ID: xyz",
	}, result.Errors)
}

func TestCreateOrder_TotalIsSnapshotNotLive(t *testing.T) {
	fx := newOrderFixture(t)

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: []string{fx.laptop.ID},
	})
	require.True(t, result.Success)

	// Появление нового товара с другой ценой не меняет сумму существующего заказа.
	products := crm.NewProductServiceWithoutMetrics(fx.store, loggerForTests())
	replacement := products.CreateProduct(context.Background(), crm.CreateProductInput{Name: "Laptop v2", Price: "1299.99"})
	require.True(t, replacement.Success)

	persisted, err := fx.store.Orders().Get(result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, "999.99", persisted.TotalAmount.StringFixed(2))
}

func TestCreateOrder_EnqueuesOutboxEvent(t *testing.T) {
	fx := newOrderFixture(t)

	result := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: []string{fx.mouse.ID},
	})
	require.True(t, result.Success)

	pending, err := fx.store.Outbox().PullPending(10)
	require.NoError(t, err)

	var orderEvents int
	for _, msg := range pending {
		if msg.EventType == "order.created" {
			orderEvents++
			require.Equal(t, result.Order.ID, msg.AggregateID)
		}
	}
	require.Equal(t, 1, orderEvents)
}

func TestQueryService_OrderAccessors(t *testing.T) {
	fx := newOrderFixture(t)
	queries := crm.NewQueryService(fx.store, loggerForTests())

	created := fx.orders.CreateOrder(context.Background(), crm.CreateOrderInput{
		CustomerID: fx.customer.ID,
		ProductIDs: []string{fx.laptop.ID, fx.mouse.ID},
	})
	require.True(t, created.Success)

	orders, err := queries.Orders()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, []string{fx.laptop.ID, fx.mouse.ID}, orders[0].ProductIDs)

	found, err := queries.Order(created.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.Order.ID, found.ID)

	missing, err := queries.Order("3b2c9c1e-54f7-4b6e-b7a3-2f1d0e9c8b7a")
	require.NoError(t, err)
	require.Nil(t, missing)

	product, err := queries.Product(fx.laptop.ID)
	require.NoError(t, err)
	require.NotNil(t, product)
	missingProduct, err := queries.Product("3b2c9c1e-54f7-4b6e-b7a3-2f1d0e9c8b7a")
	require.NoError(t, err)
	require.Nil(t, missingProduct)
}
