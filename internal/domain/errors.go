package domain

import "errors"

var (
	// Тексты ошибок валидации совпадают с сообщениями, которые видит клиент API.
	ErrNameRequired = errors.New("Name is required")
	// Ошибка отсутствующего email.
	ErrEmailRequired = errors.New("Email is required")
	// Ошибка некорректного формата email.
	ErrEmailInvalid = errors.New("Invalid email format")
	// Ошибка некорректного формата телефона.
	ErrPhoneInvalid = errors.New("Invalid phone format. Use formats like +1234567890 or 123-456-7890")
	// Ошибка нераспознанной цены.
	ErrPriceInvalid = errors.New("Invalid price format")
	// Ошибка неположительной цены.
	ErrPriceNotPositive = errors.New("Price must be positive")
	// Ошибка отрицательного остатка.
	ErrStockNegative = errors.New("Stock cannot be negative")
	// Ошибка пустого списка товаров в заказе.
	ErrProductsRequired = errors.New("At least one product must be selected")

	// ErrEmailTaken — конфликт уникальности email. Возвращается и pre-check'ом
	// сервиса, и хранилищем при нарушении ограничения в момент коммита.
	ErrEmailTaken = errors.New("Email already exists")

	// Ошибка отсутствующего владельца заказа.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("total_amount must be non-negative")

	// ErrCustomerNotFound возвращается, если клиент не найден в репозитории.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден в репозитории.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateID сигнализирует о попытке создать запись с занятым идентификатором.
	ErrDuplicateID = errors.New("record with the same id already exists")
)

// IsEmailTaken проверяет, является ли ошибка конфликтом уникальности email.
func IsEmailTaken(err error) bool {
	return errors.Is(err, ErrEmailTaken)
}

// IsNotFound проверяет, относится ли ошибка к классу "запись не найдена".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}
