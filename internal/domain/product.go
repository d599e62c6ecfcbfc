package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product представляет товар каталога.
type Product struct {
	ID   string
	Name string
	// Price — строго положительная цена с двумя знаками после запятой.
	Price decimal.Decimal
	// Stock — неотрицательный остаток, по умолчанию 0.
	Stock int32
}

// ParseProductFields валидирует сырые поля товара и возвращает нормализованную
// цену (масштаб 2) и остаток (0, если не передан) вместе со списком замечаний.
// Функция чистая; при непустом списке ошибок возвращённые значения не используются.
func ParseProductFields(name, price string, stock *int32) (decimal.Decimal, int32, []error) {
	var errs []error

	if strings.TrimSpace(name) == "" {
		errs = append(errs, ErrNameRequired)
	}

	parsedPrice := decimal.Zero
	switch parsed, err := decimal.NewFromString(strings.TrimSpace(price)); {
	case err != nil:
		errs = append(errs, ErrPriceInvalid)
	case parsed.LessThanOrEqual(decimal.Zero):
		errs = append(errs, ErrPriceNotPositive)
	default:
		parsedPrice = parsed.Round(2)
	}

	var stockValue int32
	if stock != nil {
		if *stock < 0 {
			errs = append(errs, ErrStockNegative)
		} else {
			stockValue = *stock
		}
	}

	return parsedPrice, stockValue, errs
}
