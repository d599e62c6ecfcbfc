package crm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

func int32Ptr(v int32) *int32 {
	return &v
}

func TestCreateProduct_Success(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewProductServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateProduct(context.Background(), crm.CreateProductInput{
		Name:  "Laptop",
		Price: "999.99",
		Stock: int32Ptr(10),
	})

	require.True(t, result.Success)
	require.Equal(t, "Product created successfully", result.Message)
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Product)
	require.Equal(t, "999.99", result.Product.Price.StringFixed(2))
	require.Equal(t, int32(10), result.Product.Stock)

	persisted, err := store.Products().Get(result.Product.ID)
	require.NoError(t, err)
	require.True(t, persisted.Price.Equal(result.Product.Price))

	pending, err := store.Outbox().PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "product.created", pending[0].EventType)
}

func TestCreateProduct_StockDefaultsToZero(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewProductServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateProduct(context.Background(), crm.CreateProductInput{
		Name:  "Mouse",
		Price: "25.50",
	})

	require.True(t, result.Success)
	require.Equal(t, int32(0), result.Product.Stock)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  crm.CreateProductInput
		errors []string
	}{
		{
			name:   "unparsable price",
			input:  crm.CreateProductInput{Name: "Widget", Price: "abc"},
			errors: []string{"Invalid price format"},
		},
		{
			name:   "zero price",
			input:  crm.CreateProductInput{Name: "Widget", Price: "0"},
			errors: []string{"Price must be positive"},
		},
		{
			name:   "negative price",
			input:  crm.CreateProductInput{Name: "Widget", Price: "-5.00"},
			errors: []string{"Price must be positive"},
		},
		{
			name:   "negative stock",
			input:  crm.CreateProductInput{Name: "Widget", Price: "10.00", Stock: int32Ptr(-1)},
			errors: []string{"Stock cannot be negative"},
		},
		{
			name:   "everything wrong",
			input:  crm.CreateProductInput{Name: " ", Price: "free", Stock: int32Ptr(-3)},
			errors: []string{"Name is required", "Invalid price format", "Stock cannot be negative"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			svc := crm.NewProductServiceWithoutMetrics(store, loggerForTests())

			result := svc.CreateProduct(context.Background(), tc.input)

			require.False(t, result.Success)
			require.Equal(t, "Validation failed", result.Message)
			require.Nil(t, result.Product)
			require.Equal(t, tc.errors, result.Errors)

			products, err := store.Products().List()
			require.NoError(t, err)
			require.Empty(t, products)
		})
	}
}

func TestCreateProduct_PriceRoundedToTwoDigits(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewProductServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateProduct(context.Background(), crm.CreateProductInput{
		Name:  "Cable",
		Price: "9.999",
	})

	require.True(t, result.Success)
	require.Equal(t, "10.00", result.Product.Price.StringFixed(2))
}
