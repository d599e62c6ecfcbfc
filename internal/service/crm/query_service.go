package crm

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// QueryService — тонкие read-доступы: списки и выборка по идентификатору.
// Отсутствующая запись — это nil-результат, а не ошибка.
type QueryService struct {
	store  domain.Store
	logger *log.Entry
}

// NewQueryService создаёт сервис чтения.
func NewQueryService(store domain.Store, logger *log.Entry) *QueryService {
	if logger == nil {
		logger = log.New().WithField("component", "query-service")
	}
	return &QueryService{store: store, logger: logger}
}

// Customers возвращает всех клиентов в порядке создания.
func (s *QueryService) Customers() ([]domain.Customer, error) {
	customers, err := s.store.Customers().List()
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// Customer возвращает клиента по идентификатору или nil, если такого нет.
func (s *QueryService) Customer(id string) (*domain.Customer, error) {
	customer, err := s.store.Customers().Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &customer, nil
}

// Products возвращает все товары.
func (s *QueryService) Products() ([]domain.Product, error) {
	products, err := s.store.Products().List()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Product возвращает товар по идентификатору или nil, если такого нет.
func (s *QueryService) Product(id string) (*domain.Product, error) {
	product, err := s.store.Products().Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// Orders возвращает заказы вместе с наборами товаров; связки загружаются
// одной сгруппированной выборкой, а не отдельным запросом на заказ.
func (s *QueryService) Orders() ([]domain.Order, error) {
	orders, err := s.store.Orders().List()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Order возвращает заказ по идентификатору или nil, если такого нет.
func (s *QueryService) Order(id string) (*domain.Order, error) {
	order, err := s.store.Orders().Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}
