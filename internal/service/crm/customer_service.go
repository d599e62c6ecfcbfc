package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

// Сообщения результата мутаций, видимые вызывающей стороне.
const (
	msgValidationFailed     = "Validation failed"
	msgCustomerCreated      = "Customer created successfully"
	msgCustomerCreateFailed = "Failed to create customer"
	msgBulkCustomersFailed  = "Failed to create customers"
	msgProductCreated       = "Product created successfully"
	msgProductCreateFailed  = "Failed to create product"
	msgOrderCreated         = "Order created successfully"
	msgOrderCreateFailed    = "Failed to create order"
)

// CreateCustomerInput — типизированный вход мутации создания клиента.
type CreateCustomerInput struct {
	Name  string
	Email string
	Phone string
}

// CreateCustomerResult несёт явный признак успеха и упорядоченный список ошибок.
// Прочтение "пустой errors + заполненный Customer ⇒ успех" остаётся корректным.
type CreateCustomerResult struct {
	Customer *domain.Customer
	Message  string
	Success  bool
	Errors   []string
}

// BulkCreateCustomersResult — результат batch-мутации: частичный успех и ошибки
// сосуществуют только здесь.
type BulkCreateCustomersResult struct {
	Customers    []domain.Customer
	Errors       []string
	SuccessCount int
	TotalCount   int
}

// CustomerService реализует валидированные мутации клиентов.
type CustomerService struct {
	store   domain.UnitOfWork
	logger  *log.Entry
	metrics *metrics.MutationMetrics
}

// NewCustomerService создаёт сервис клиентов.
func NewCustomerService(store domain.UnitOfWork, logger *log.Entry) *CustomerService {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &CustomerService{
		store:   store,
		logger:  logger,
		metrics: metrics.NewMutationMetrics(),
	}
}

// NewCustomerServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewCustomerServiceWithoutMetrics(store domain.UnitOfWork, logger *log.Entry) *CustomerService {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &CustomerService{store: store, logger: logger}
}

// CreateCustomer валидирует поля, проверяет уникальность email и сохраняет
// клиента одной транзакцией. При любых замечаниях запись не создаётся:
// ошибки валидации идут в порядке объявления правил, конфликт email — последним.
func (s *CustomerService) CreateCustomer(ctx context.Context, input CreateCustomerInput) CreateCustomerResult {
	start := time.Now()
	result := s.createCustomer(ctx, input)
	if s.metrics != nil {
		s.metrics.RecordMutation("create_customer", result.Success)
		s.metrics.RecordMutationDuration("create_customer", time.Since(start))
	}
	return result
}

func (s *CustomerService) createCustomer(ctx context.Context, input CreateCustomerInput) CreateCustomerResult {
	reasons := errorStrings(domain.ValidateCustomerFields(input.Name, input.Email, input.Phone))

	normalized := domain.NormalizeEmail(input.Email)
	if normalized != "" {
		exists, err := s.store.Customers().ExistsByEmail(normalized)
		if err != nil {
			s.logger.WithError(err).Warn("customer uniqueness pre-check failed")
			return CreateCustomerResult{
				Message: msgCustomerCreateFailed,
				Errors:  []string{msgCustomerCreateFailed},
			}
		}
		if exists {
			reasons = append(reasons, domain.ErrEmailTaken.Error())
		}
	}

	if len(reasons) > 0 {
		return CreateCustomerResult{Message: msgValidationFailed, Errors: reasons}
	}

	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     normalized,
		Phone:     strings.TrimSpace(input.Phone),
		CreatedAt: time.Now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		if err := tx.Customers().Create(customer); err != nil {
			return err
		}
		return s.enqueueCustomerCreated(tx, customer)
	})
	if err != nil {
		// Гонка с конкурентным коммитом того же email: pre-check прошёл,
		// а ограничение хранилища сработало в момент записи.
		if domain.IsEmailTaken(err) {
			return CreateCustomerResult{
				Message: msgValidationFailed,
				Errors:  []string{domain.ErrEmailTaken.Error()},
			}
		}
		s.logger.WithError(err).WithField("email", customer.Email).Error("create customer failed")
		return CreateCustomerResult{
			Message: msgCustomerCreateFailed,
			Errors:  []string{msgCustomerCreateFailed},
		}
	}

	s.logger.WithFields(log.Fields{
		"customer_id": customer.ID,
		"email":       customer.Email,
	}).Info("customer created")

	return CreateCustomerResult{
		Customer: &customer,
		Message:  msgCustomerCreated,
		Success:  true,
	}
}

// BulkCreateCustomers обрабатывает каждую позицию входа независимо: одна
// внешняя транзакция, по одному вложенному scope на кандидата. Откат scope не
// трогает уже зафиксированных соседей; внешняя транзакция коммитится всегда.
func (s *CustomerService) BulkCreateCustomers(ctx context.Context, inputs []CreateCustomerInput) BulkCreateCustomersResult {
	start := time.Now()
	result := s.bulkCreateCustomers(ctx, inputs)
	if s.metrics != nil {
		s.metrics.RecordMutation("bulk_create_customers", len(result.Errors) == 0)
		s.metrics.RecordMutationDuration("bulk_create_customers", time.Since(start))
	}
	return result
}

func (s *CustomerService) bulkCreateCustomers(ctx context.Context, inputs []CreateCustomerInput) BulkCreateCustomersResult {
	result := BulkCreateCustomersResult{
		Customers:  make([]domain.Customer, 0, len(inputs)),
		TotalCount: len(inputs),
	}

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		for i, input := range inputs {
			created, reason := s.processBatchElement(tx, input)
			if reason != "" {
				result.Errors = append(result.Errors, fmt.Sprintf("Index %d: %s", i, reason))
				if s.metrics != nil {
					s.metrics.RecordBatchElement(false)
				}
				continue
			}
			result.Customers = append(result.Customers, *created)
			if s.metrics != nil {
				s.metrics.RecordBatchElement(true)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("bulk create customers transaction failed")
		return BulkCreateCustomersResult{
			Errors:     []string{msgBulkCustomersFailed},
			TotalCount: len(inputs),
		}
	}

	result.SuccessCount = len(result.Customers)
	return result
}

// processBatchElement возвращает созданного клиента либо непустую причину отказа.
func (s *CustomerService) processBatchElement(tx domain.Tx, input CreateCustomerInput) (*domain.Customer, string) {
	reasons := errorStrings(domain.ValidateCustomerFields(input.Name, input.Email, input.Phone))

	normalized := domain.NormalizeEmail(input.Email)
	if normalized != "" {
		// Видны долговечно зафиксированные строки и позиции этого же батча,
		// чьи scope уже освобождены.
		exists, err := tx.Customers().ExistsByEmail(normalized)
		if err != nil {
			s.logger.WithError(err).Warn("batch uniqueness pre-check failed")
			return nil, msgCustomerCreateFailed
		}
		if exists {
			reasons = append(reasons, domain.ErrEmailTaken.Error())
		}
	}

	if len(reasons) > 0 {
		return nil, strings.Join(reasons, "; ")
	}

	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     normalized,
		Phone:     strings.TrimSpace(input.Phone),
		CreatedAt: time.Now().UTC(),
	}

	_, err := tx.WithNestedScope(func(scope domain.Store) error {
		if err := scope.Customers().Create(customer); err != nil {
			return err
		}
		return s.enqueueCustomerCreated(scope, customer)
	})
	if err != nil {
		if domain.IsEmailTaken(err) {
			return nil, domain.ErrEmailTaken.Error()
		}
		s.logger.WithError(err).WithField("email", customer.Email).Error("batch element persistence failed")
		return nil, msgCustomerCreateFailed
	}

	return &customer, ""
}

func (s *CustomerService) enqueueCustomerCreated(store domain.Store, customer domain.Customer) error {
	err := enqueueRecordEvent(store, "customer", customer.ID, string(eventCustomerCreated), map[string]any{
		"id":    customer.ID,
		"name":  customer.Name,
		"email": customer.Email,
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
	return nil
}

// errorStrings переводит доменные замечания в пользовательские строки,
// сохраняя порядок объявления правил.
func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
