package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg       domain.OutboxMessage
	status    string
	createdAt time.Time
	updatedAt time.Time
}

// dataset — полное состояние in-memory хранилища. Порядок вставки фиксируется
// отдельными слайсами, чтобы списки были стабильными.
type dataset struct {
	customers     map[string]domain.Customer
	customerOrder []string
	emails        map[string]string
	products      map[string]domain.Product
	productOrder  []string
	orders        map[string]domain.Order
	orderOrder    []string
	outbox        map[string]*outboxRecord
	outboxOrder   []string
}

func newDataset() *dataset {
	return &dataset{
		customers: make(map[string]domain.Customer),
		emails:    make(map[string]string),
		products:  make(map[string]domain.Product),
		orders:    make(map[string]domain.Order),
		outbox:    make(map[string]*outboxRecord),
	}
}

// clone делает глубокую копию состояния для транзакционного overlay.
func (d *dataset) clone() *dataset {
	c := &dataset{
		customers:     make(map[string]domain.Customer, len(d.customers)),
		customerOrder: append([]string(nil), d.customerOrder...),
		emails:        make(map[string]string, len(d.emails)),
		products:      make(map[string]domain.Product, len(d.products)),
		productOrder:  append([]string(nil), d.productOrder...),
		orders:        make(map[string]domain.Order, len(d.orders)),
		orderOrder:    append([]string(nil), d.orderOrder...),
		outbox:        make(map[string]*outboxRecord, len(d.outbox)),
		outboxOrder:   append([]string(nil), d.outboxOrder...),
	}
	for id, customer := range d.customers {
		c.customers[id] = customer
	}
	for email, id := range d.emails {
		c.emails[email] = id
	}
	for id, product := range d.products {
		c.products[id] = product
	}
	for id, order := range d.orders {
		order.ProductIDs = append([]string(nil), order.ProductIDs...)
		c.orders[id] = order
	}
	for id, rec := range d.outbox {
		copied := *rec
		copied.msg.Payload = append([]byte(nil), rec.msg.Payload...)
		c.outbox[id] = &copied
	}
	return c
}

// Store — in-memory реализация domain.UnitOfWork для тестов и локального запуска.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Customers возвращает autocommit-доступ к клиентам.
func (s *Store) Customers() domain.CustomerRepository { return &lockedCustomers{store: s} }

// Products возвращает autocommit-доступ к товарам.
func (s *Store) Products() domain.ProductRepository { return &lockedProducts{store: s} }

// Orders возвращает autocommit-доступ к заказам.
func (s *Store) Orders() domain.OrderRepository { return &lockedOrders{store: s} }

// Outbox возвращает autocommit-доступ к очереди outbox.
func (s *Store) Outbox() domain.OutboxRepository { return &lockedOutbox{store: s} }

// WithinTx выполняет fn над копией состояния и публикует её целиком при успехе.
// Мьютекс держится на всё время транзакции: писатели сериализуются, что
// повторяет поведение одной логической транзакции на запрос.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txSession{data: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// txSession реализует domain.Tx поверх рабочей копии dataset.
type txSession struct {
	data *dataset
}

func (t *txSession) Customers() domain.CustomerRepository { return &customerRepository{sess: t} }
func (t *txSession) Products() domain.ProductRepository   { return &productRepository{sess: t} }
func (t *txSession) Orders() domain.OrderRepository       { return &orderRepository{sess: t} }
func (t *txSession) Outbox() domain.OutboxRepository      { return &outboxRepository{sess: t} }

// WithNestedScope выполняет fn над снимком рабочей копии. Снимок публикуется
// в транзакцию только при успехе: откат scope не трогает уже принятые записи.
func (t *txSession) WithNestedScope(fn func(domain.Store) error) (bool, error) {
	scope := &txSession{data: t.data.clone()}
	if err := fn(scope); err != nil {
		return false, err
	}
	t.data = scope.data
	return true, nil
}

var (
	_ domain.UnitOfWork = (*Store)(nil)
	_ domain.Tx         = (*txSession)(nil)
)
