package memory

import "github.com/vladislavdragonenkov/crm/internal/domain"

type productRepository struct {
	sess *txSession
}

func (r *productRepository) Create(product domain.Product) error {
	d := r.sess.data
	if _, exists := d.products[product.ID]; exists {
		return domain.ErrDuplicateID
	}
	d.products[product.ID] = product
	d.productOrder = append(d.productOrder, product.ID)
	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	product, ok := r.sess.data.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepository) List() ([]domain.Product, error) {
	d := r.sess.data
	result := make([]domain.Product, 0, len(d.productOrder))
	for _, id := range d.productOrder {
		result = append(result, d.products[id])
	}
	return result, nil
}

type lockedProducts struct {
	store *Store
}

func (l *lockedProducts) Create(product domain.Product) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&productRepository{sess: &txSession{data: l.store.data}}).Create(product)
}

func (l *lockedProducts) Get(id string) (domain.Product, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&productRepository{sess: &txSession{data: l.store.data}}).Get(id)
}

func (l *lockedProducts) List() ([]domain.Product, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return (&productRepository{sess: &txSession{data: l.store.data}}).List()
}

var (
	_ domain.ProductRepository = (*productRepository)(nil)
	_ domain.ProductRepository = (*lockedProducts)(nil)
)
