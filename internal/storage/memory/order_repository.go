package memory

import "github.com/vladislavdragonenkov/crm/internal/domain"

type orderRepository struct {
	sess *txSession
}

// Create сохраняет заказ вместе со связками, проверяя ссылочную целостность
// так же, как это делают FK-ограничения в Postgres.
func (r *orderRepository) Create(order domain.Order) error {
	d := r.sess.data
	if _, exists := d.orders[order.ID]; exists {
		return domain.ErrDuplicateID
	}
	if _, exists := d.customers[order.CustomerID]; !exists {
		return domain.ErrCustomerNotFound
	}
	for _, productID := range order.ProductIDs {
		if _, exists := d.products[productID]; !exists {
			return domain.ErrProductNotFound
		}
	}
	order.ProductIDs = append([]string(nil), order.ProductIDs...)
	d.orders[order.ID] = order
	d.orderOrder = append(d.orderOrder, order.ID)
	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	order, ok := r.sess.data.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order.ProductIDs = append([]string(nil), order.ProductIDs...)
	return order, nil
}

func (r *orderRepository) List() ([]domain.Order, error) {
	d := r.sess.data
	result := make([]domain.Order, 0, len(d.orderOrder))
	for _, id := range d.orderOrder {
		order := d.orders[id]
		order.ProductIDs = append([]string(nil), order.ProductIDs...)
		result = append(result, order)
	}
	return result, nil
}

type lockedOrders struct {
	store *Store
}

func (l *lockedOrders) Create(order domain.Order) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&orderRepository{sess: &txSession{data: l.store.data}}).Create(order)
}

func (l *lockedOrders) Get(id string) (domain.Order, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&orderRepository{sess: &txSession{data: l.store.data}}).Get(id)
}

func (l *lockedOrders) List() ([]domain.Order, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&orderRepository{sess: &txSession{data: l.store.data}}).List()
}

var (
	_ domain.OrderRepository = (*orderRepository)(nil)
	_ domain.OrderRepository = (*lockedOrders)(nil)
)
