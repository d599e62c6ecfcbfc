package memory

import "github.com/vladislavdragonenkov/crm/internal/domain"

// customerRepository работает с dataset сессии без собственных блокировок.
type customerRepository struct {
	sess *txSession
}

// Create сохраняет клиента, проверяя уникальность email на уровне хранилища.
func (r *customerRepository) Create(customer domain.Customer) error {
	d := r.sess.data
	if _, exists := d.customers[customer.ID]; exists {
		return domain.ErrDuplicateID
	}
	if _, exists := d.emails[customer.Email]; exists {
		return domain.ErrEmailTaken
	}
	d.customers[customer.ID] = customer
	d.emails[customer.Email] = customer.ID
	d.customerOrder = append(d.customerOrder, customer.ID)
	return nil
}

func (r *customerRepository) Get(id string) (domain.Customer, error) {
	customer, ok := r.sess.data.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *customerRepository) List() ([]domain.Customer, error) {
	d := r.sess.data
	result := make([]domain.Customer, 0, len(d.customerOrder))
	for _, id := range d.customerOrder {
		result = append(result, d.customers[id])
	}
	return result, nil
}

func (r *customerRepository) ExistsByEmail(email string) (bool, error) {
	_, exists := r.sess.data.emails[email]
	return exists, nil
}

// lockedCustomers — autocommit-обёртка: берёт мьютекс Store на каждую операцию.
type lockedCustomers struct {
	store *Store
}

func (l *lockedCustomers) Create(customer domain.Customer) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&customerRepository{sess: &txSession{data: l.store.data}}).Create(customer)
}

func (l *lockedCustomers) Get(id string) (domain.Customer, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&customerRepository{sess: &txSession{data: l.store.data}}).Get(id)
}

func (l *lockedCustomers) List() ([]domain.Customer, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&customerRepository{sess: &txSession{data: l.store.data}}).List()
}

func (l *lockedCustomers) ExistsByEmail(email string) (bool, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&customerRepository{sess: &txSession{data: l.store.data}}).ExistsByEmail(email)
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.CustomerRepository = (*lockedCustomers)(nil)
)
