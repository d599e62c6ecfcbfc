package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order агрегирует заказ: владельца, набор товаров и зафиксированную сумму.
type Order struct {
	ID         string
	CustomerID string
	// ProductIDs — непустой набор ссылок на товары. Заказ единолично владеет
	// своими связками; сами товары разделяются между заказами.
	ProductIDs []string
	// TotalAmount — снимок суммы цен товаров на момент создания заказа.
	// Не пересчитывается при последующих изменениях цен.
	TotalAmount decimal.Decimal
	OrderDate   time.Time
	CreatedAt   time.Time
}

// OrderTotal вычисляет сумму заказа точной десятичной арифметикой.
func OrderTotal(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, product := range products {
		total = total.Add(product.Price)
	}
	return total.Round(2)
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.ProductIDs) == 0 {
		errs = append(errs, ErrProductsRequired)
	}
	if o.TotalAmount.IsNegative() {
		errs = append(errs, ErrTotalNegative)
	}

	return errs
}
