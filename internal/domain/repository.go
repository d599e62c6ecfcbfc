package domain

import "context"

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента. Возвращает ErrEmailTaken, если
	// ограничение уникальности email нарушено на уровне хранилища.
	Create(customer Customer) error
	// Get возвращает клиента по идентификатору или ErrCustomerNotFound.
	Get(id string) (Customer, error)
	// List возвращает всех клиентов в порядке создания.
	List() ([]Customer, error)
	// ExistsByEmail проверяет наличие клиента с таким нормализованным email.
	ExistsByEmail(email string) (bool, error)
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	Create(product Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id string) (Product, error)
	List() ([]Product, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе со связками заказ-товар.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// List возвращает заказы с наборами товаров, не выполняя отдельный
	// запрос связок на каждый заказ.
	List() ([]Order, error)
}

// Store предоставляет доступ к репозиториям в рамках одного контекста
// исполнения: autocommit-доступ либо открытая транзакция.
type Store interface {
	Customers() CustomerRepository
	Products() ProductRepository
	Orders() OrderRepository
	Outbox() OutboxRepository
}

// Tx — открытая транзакция. Вложенный scope реализуется как savepoint:
// его откат не отменяет уже зафиксированную работу внешней транзакции.
type Tx interface {
	Store
	// WithNestedScope выполняет fn во вложенном scope. Возвращает committed=true
	// после фиксации scope; при ошибке откатывается только scope, внешняя
	// транзакция продолжает жить.
	WithNestedScope(fn func(Store) error) (bool, error)
}

// UnitOfWork управляет транзакционными границами поверх Store.
type UnitOfWork interface {
	Store
	// WithinTx выполняет fn в одной транзакции: commit при nil, rollback при ошибке.
	WithinTx(ctx context.Context, fn func(Tx) error) error
}
