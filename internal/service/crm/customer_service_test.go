package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

// customerCreateFaults подменяет результат Create для выбранных email, не меняя
// остальное поведение хранилища. Моделирует гонку конкурентных коммитов: pre-check
// уникальности прошёл, а ограничение хранилища сработало в момент записи.
type customerCreateFaults struct {
	domain.UnitOfWork
	failFor map[string]error
}

func (s *customerCreateFaults) Customers() domain.CustomerRepository {
	return &faultyCustomerRepo{CustomerRepository: s.UnitOfWork.Customers(), failFor: s.failFor}
}

func (s *customerCreateFaults) WithinTx(ctx context.Context, fn func(domain.Tx) error) error {
	return s.UnitOfWork.WithinTx(ctx, func(tx domain.Tx) error {
		return fn(&faultyTx{Tx: tx, failFor: s.failFor})
	})
}

type faultyTx struct {
	domain.Tx
	failFor map[string]error
}

func (t *faultyTx) Customers() domain.CustomerRepository {
	return &faultyCustomerRepo{CustomerRepository: t.Tx.Customers(), failFor: t.failFor}
}

func (t *faultyTx) WithNestedScope(fn func(domain.Store) error) (bool, error) {
	return t.Tx.WithNestedScope(func(scope domain.Store) error {
		return fn(&faultyScope{Store: scope, failFor: t.failFor})
	})
}

type faultyScope struct {
	domain.Store
	failFor map[string]error
}

func (s *faultyScope) Customers() domain.CustomerRepository {
	return &faultyCustomerRepo{CustomerRepository: s.Store.Customers(), failFor: s.failFor}
}

type faultyCustomerRepo struct {
	domain.CustomerRepository
	failFor map[string]error
}

func (r *faultyCustomerRepo) Create(customer domain.Customer) error {
	if err, ok := r.failFor[customer.Email]; ok {
		return err
	}
	return r.CustomerRepository.Create(customer)
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func TestCreateCustomer_Success(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Alice Johnson",
		Email: "  Alice@Example.COM ",
		Phone: "+1234567890",
	})

	require.True(t, result.Success)
	require.Equal(t, "Customer created successfully", result.Message)
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Customer)
	require.Equal(t, "alice@example.com", result.Customer.Email)
	require.NotEmpty(t, result.Customer.ID)

	persisted, err := store.Customers().Get(result.Customer.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice Johnson", persisted.Name)

	// Событие создания ждёт публикации в outbox.
	pending, err := store.Outbox().PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "customer.created", pending[0].EventType)
	require.Equal(t, result.Customer.ID, pending[0].AggregateID)
}

func TestCreateCustomer_ValidationErrorsInDeclarationOrder(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "   ",
		Email: "not-an-email",
		Phone: "12345",
	})

	require.False(t, result.Success)
	require.Equal(t, "Validation failed", result.Message)
	require.Nil(t, result.Customer)
	require.Equal(t, []string{
		"Name is required",
		"Invalid email format",
		"Invalid phone format. Use formats like +1234567890 or 123-456-7890",
	}, result.Errors)

	customers, err := store.Customers().List()
	require.NoError(t, err)
	require.Empty(t, customers)
}

func TestCreateCustomer_DuplicateEmailCaseInsensitive(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	first := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.True(t, first.Success)

	second := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Impostor",
		Email: "ALICE@example.com",
	})
	require.False(t, second.Success)
	require.Nil(t, second.Customer)
	require.Equal(t, []string{"Email already exists"}, second.Errors)

	customers, err := store.Customers().List()
	require.NoError(t, err)
	require.Len(t, customers, 1)
}

func TestCreateCustomer_UniquenessErrorComesLast(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	seeded := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.True(t, seeded.Success)

	result := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "",
		Email: "alice@example.com",
	})
	require.False(t, result.Success)
	require.Equal(t, []string{"Name is required", "Email already exists"}, result.Errors)
}

func TestCreateCustomer_UniquenessRaceAtCommitTime(t *testing.T) {
	store := &customerCreateFaults{
		UnitOfWork: memory.NewStore(),
		failFor:    map[string]error{"raced@example.com": domain.ErrEmailTaken},
	}
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Raced",
		Email: "raced@example.com",
	})

	// Конфликт, пойманный ограничением хранилища после успешного pre-check,
	// выглядит для вызывающей стороны как обычный отказ по уникальности.
	require.False(t, result.Success)
	require.Nil(t, result.Customer)
	require.Equal(t, "Validation failed", result.Message)
	require.Equal(t, []string{"Email already exists"}, result.Errors)

	customers, err := store.Customers().List()
	require.NoError(t, err)
	require.Empty(t, customers)

	pending, err := store.Outbox().PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestCreateCustomer_StorageFaultOnWrite(t *testing.T) {
	store := &customerCreateFaults{
		UnitOfWork: memory.NewStore(),
		failFor:    map[string]error{"bob@example.com": errors.New("disk full")},
	}
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Bob",
		Email: "bob@example.com",
	})

	require.False(t, result.Success)
	require.Nil(t, result.Customer)
	require.Equal(t, "Failed to create customer", result.Message)
	require.Equal(t, []string{"Failed to create customer"}, result.Errors)
}

func TestBulkCreateCustomers_IsolatesFailuresPerElement(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.BulkCreateCustomers(context.Background(), []crm.CreateCustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "", Email: "b@x.com"},
		{Name: "C", Email: "a@x.com"},
	})

	require.Len(t, result.Customers, 1)
	require.Equal(t, "a@x.com", result.Customers[0].Email)
	require.Equal(t, 1, result.SuccessCount)
	require.Equal(t, 3, result.TotalCount)
	require.Equal(t, []string{
		"Index 1: Name is required",
		"Index 2: Email already exists",
	}, result.Errors)

	// Успех первой позиции пережил отказы последующих.
	customers, err := store.Customers().List()
	require.NoError(t, err)
	require.Len(t, customers, 1)
}

func TestBulkCreateCustomers_CommitTimeFaultsStayPerElement(t *testing.T) {
	store := &customerCreateFaults{
		UnitOfWork: memory.NewStore(),
		failFor: map[string]error{
			"raced@x.com":  domain.ErrEmailTaken,
			"broken@x.com": errors.New("write failed"),
		},
	}
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.BulkCreateCustomers(context.Background(), []crm.CreateCustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "Raced", Email: "raced@x.com"},
		{Name: "Broken", Email: "broken@x.com"},
		{Name: "C", Email: "c@x.com"},
	})

	// Откат вложенного scope позиций 1 и 2 не задел ни соседей, ни их события.
	require.Len(t, result.Customers, 2)
	require.Equal(t, "a@x.com", result.Customers[0].Email)
	require.Equal(t, "c@x.com", result.Customers[1].Email)
	require.Equal(t, 2, result.SuccessCount)
	require.Equal(t, 4, result.TotalCount)
	require.Equal(t, []string{
		"Index 1: Email already exists",
		"Index 2: Failed to create customer",
	}, result.Errors)

	customers, err := store.Customers().List()
	require.NoError(t, err)
	require.Len(t, customers, 2)

	pending, err := store.Outbox().PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestBulkCreateCustomers_EveryIndexHasExactlyOneOutcome(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	inputs := []crm.CreateCustomerInput{
		{Name: "One", Email: "one@x.com"},
		{Name: "Two", Email: "broken"},
		{Name: "Three", Email: "three@x.com", Phone: "123-456-7890"},
		{Name: "", Email: ""},
		{Name: "Five", Email: "one@x.com"},
	}

	result := svc.BulkCreateCustomers(context.Background(), inputs)

	require.Equal(t, len(inputs), len(result.Customers)+len(result.Errors))
	require.Equal(t, len(result.Customers), result.SuccessCount)
	require.Equal(t, len(inputs), result.TotalCount)
	require.Equal(t, []string{
		"Index 1: Invalid email format",
		"Index 3: Name is required; Email is required",
		"Index 4: Email already exists",
	}, result.Errors)
}

func TestBulkCreateCustomers_MultipleReasonsJoined(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.BulkCreateCustomers(context.Background(), []crm.CreateCustomerInput{
		{Name: "", Email: "bad", Phone: "nope"},
	})

	require.Empty(t, result.Customers)
	require.Equal(t, []string{
		"Index 0: Name is required; Invalid email format; Invalid phone format. Use formats like +1234567890 or 123-456-7890",
	}, result.Errors)
}

func TestBulkCreateCustomers_EmptyInput(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.BulkCreateCustomers(context.Background(), nil)

	require.Empty(t, result.Customers)
	require.Empty(t, result.Errors)
	require.Zero(t, result.SuccessCount)
	require.Zero(t, result.TotalCount)
}

func TestBulkCreateCustomers_OutboxEventPerCreatedCustomer(t *testing.T) {
	store := memory.NewStore()
	svc := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())

	result := svc.BulkCreateCustomers(context.Background(), []crm.CreateCustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "bad"},
		{Name: "C", Email: "c@x.com"},
	})
	require.Len(t, result.Customers, 2)

	pending, err := store.Outbox().PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, msg := range pending {
		require.Equal(t, "customer.created", msg.EventType)
	}
}

func TestQueryService_ReadsAreIdempotent(t *testing.T) {
	store := memory.NewStore()
	customers := crm.NewCustomerServiceWithoutMetrics(store, loggerForTests())
	queries := crm.NewQueryService(store, loggerForTests())

	created := customers.CreateCustomer(context.Background(), crm.CreateCustomerInput{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.True(t, created.Success)

	first, err := queries.Customers()
	require.NoError(t, err)
	second, err := queries.Customers()
	require.NoError(t, err)
	require.Equal(t, first, second)

	missing, err := queries.Customer("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	require.Nil(t, missing)

	found, err := queries.Customer(created.Customer.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, *created.Customer, *found)
}
