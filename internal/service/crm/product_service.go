package crm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

// CreateProductInput — типизированный вход мутации создания товара.
// Цена приходит строкой и парсится точной десятичной арифметикой.
type CreateProductInput struct {
	Name  string
	Price string
	Stock *int32
}

// CreateProductResult повторяет форму результата одиночных мутаций.
type CreateProductResult struct {
	Product *domain.Product
	Message string
	Success bool
	Errors  []string
}

// ProductService реализует валидированные мутации товаров.
type ProductService struct {
	store   domain.UnitOfWork
	logger  *log.Entry
	metrics *metrics.MutationMetrics
}

// NewProductService создаёт сервис товаров.
func NewProductService(store domain.UnitOfWork, logger *log.Entry) *ProductService {
	if logger == nil {
		logger = log.New().WithField("component", "product-service")
	}
	return &ProductService{
		store:   store,
		logger:  logger,
		metrics: metrics.NewMutationMetrics(),
	}
}

// NewProductServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewProductServiceWithoutMetrics(store domain.UnitOfWork, logger *log.Entry) *ProductService {
	if logger == nil {
		logger = log.New().WithField("component", "product-service")
	}
	return &ProductService{store: store, logger: logger}
}

// CreateProduct валидирует поля и сохраняет товар одной транзакцией.
// При любых замечаниях запись не создаётся.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) CreateProductResult {
	start := time.Now()
	result := s.createProduct(ctx, input)
	if s.metrics != nil {
		s.metrics.RecordMutation("create_product", result.Success)
		s.metrics.RecordMutationDuration("create_product", time.Since(start))
	}
	return result
}

func (s *ProductService) createProduct(ctx context.Context, input CreateProductInput) CreateProductResult {
	price, stock, errs := domain.ParseProductFields(input.Name, input.Price, input.Stock)
	if len(errs) > 0 {
		return CreateProductResult{Message: msgValidationFailed, Errors: errorStrings(errs)}
	}

	product := domain.Product{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(input.Name),
		Price: price,
		Stock: stock,
	}

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		if err := tx.Products().Create(product); err != nil {
			return err
		}
		err := enqueueRecordEvent(tx, "product", product.ID, string(eventProductCreated), map[string]any{
			"id":    product.ID,
			"name":  product.Name,
			"price": product.Price.StringFixed(2),
			"stock": product.Stock,
		})
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("name", product.Name).Error("create product failed")
		return CreateProductResult{
			Message: msgProductCreateFailed,
			Errors:  []string{msgProductCreateFailed},
		}
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"price":      product.Price.StringFixed(2),
	}).Info("product created")

	return CreateProductResult{
		Product: &product,
		Message: msgProductCreated,
		Success: true,
	}
}
