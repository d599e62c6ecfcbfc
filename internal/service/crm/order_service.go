package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

// errOrderRejected помечает откат транзакции из-за ошибок разрешения ссылок:
// это не инфраструктурный сбой, а накопленный список замечаний.
var errOrderRejected = errors.New("order rejected")

// CreateOrderInput — типизированный вход мутации сборки заказа.
type CreateOrderInput struct {
	CustomerID string
	ProductIDs []string
	// OrderDate по умолчанию равен времени сборки заказа.
	OrderDate *time.Time
}

// CreateOrderResult повторяет форму результата одиночных мутаций.
type CreateOrderResult struct {
	Order   *domain.Order
	Message string
	Success bool
	Errors  []string
}

// OrderService собирает заказы: разрешает ссылки, фиксирует снимок суммы
// и атомарно сохраняет заказ со связками.
type OrderService struct {
	store   domain.UnitOfWork
	logger  *log.Entry
	metrics *metrics.MutationMetrics
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(store domain.UnitOfWork, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &OrderService{
		store:   store,
		logger:  logger,
		metrics: metrics.NewMutationMetrics(),
	}
}

// NewOrderServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewOrderServiceWithoutMetrics(store domain.UnitOfWork, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &OrderService{store: store, logger: logger}
}

// CreateOrder выполняет сборку заказа в одной транзакции: разрешение ссылок,
// снимок суммы, запись заказа со связками и outbox-событием. Ошибки разрешения
// накапливаются все, не только первая; при любой из них ничего не пишется.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) CreateOrderResult {
	start := time.Now()
	result := s.createOrder(ctx, input)
	if s.metrics != nil {
		s.metrics.RecordMutation("create_order", result.Success)
		s.metrics.RecordMutationDuration("create_order", time.Since(start))
	}
	return result
}

func (s *OrderService) createOrder(ctx context.Context, input CreateOrderInput) CreateOrderResult {
	var (
		order   domain.Order
		reasons []string
	)

	// Повторные ссылки на один товар схлопываются: набор товаров заказа —
	// множество, цена каждого товара входит в сумму один раз.
	productIDs := dedupeRefs(input.ProductIDs)

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		reasons = nil

		if _, err := s.resolveCustomer(tx, input.CustomerID, &reasons); err != nil {
			return err
		}
		products, err := s.resolveProducts(tx, productIDs, &reasons)
		if err != nil {
			return err
		}
		if len(reasons) > 0 {
			return errOrderRejected
		}

		now := time.Now().UTC()
		orderDate := now
		if input.OrderDate != nil {
			orderDate = input.OrderDate.UTC()
		}

		order = domain.Order{
			ID:          uuid.NewString(),
			CustomerID:  input.CustomerID,
			ProductIDs:  productIDs,
			TotalAmount: domain.OrderTotal(products),
			OrderDate:   orderDate,
			CreatedAt:   now,
		}

		if err := tx.Orders().Create(order); err != nil {
			return err
		}
		err = enqueueRecordEvent(tx, "order", order.ID, string(eventOrderCreated), map[string]any{
			"id":           order.ID,
			"customer_id":  order.CustomerID,
			"product_ids":  order.ProductIDs,
			"total_amount": order.TotalAmount.StringFixed(2),
		})
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
		return nil
	})

	switch {
	case err == nil:
		s.logger.WithFields(log.Fields{
			"order_id":     order.ID,
			"customer_id":  order.CustomerID,
			"total_amount": order.TotalAmount.StringFixed(2),
		}).Info("order created")
		return CreateOrderResult{
			Order:   &order,
			Message: msgOrderCreated,
			Success: true,
		}
	case errors.Is(err, errOrderRejected):
		return CreateOrderResult{Message: msgValidationFailed, Errors: reasons}
	default:
		s.logger.WithError(err).WithField("customer_id", input.CustomerID).Error("create order failed")
		return CreateOrderResult{
			Message: msgOrderCreateFailed,
			Errors:  []string{msgOrderCreateFailed},
		}
	}
}

// dedupeRefs убирает повторные ссылки, сохраняя порядок первых вхождений.
func dedupeRefs(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// resolveCustomer различает искажённый идентификатор и отсутствующего клиента.
func (s *OrderService) resolveCustomer(tx domain.Tx, id string, reasons *[]string) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		*reasons = append(*reasons, fmt.Sprintf("Invalid customer ID: %s", id))
		return nil, nil
	}

	customer, err := tx.Customers().Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			*reasons = append(*reasons, fmt.Sprintf("Customer with ID %s does not exist", id))
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// resolveProducts разрешает каждую ссылку независимо, накапливая все замечания.
// Пустой список — самостоятельная ошибка ещё до разрешения.
func (s *OrderService) resolveProducts(tx domain.Tx, ids []string, reasons *[]string) ([]domain.Product, error) {
	if len(ids) == 0 {
		*reasons = append(*reasons, domain.ErrProductsRequired.Error())
		return nil, nil
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			*reasons = append(*reasons, fmt.Sprintf("Invalid product ID: %s", id))
			continue
		}
		product, err := tx.Products().Get(id)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				*reasons = append(*reasons, fmt.Sprintf("Product with ID %s does not exist", id))
				continue
			}
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}
