package domain

import (
	"regexp"
	"strings"
	"time"
)

// Customer представляет клиента CRM.
type Customer struct {
	ID string
	// Name — отображаемое имя, непустое после обрезки пробелов.
	Name string
	// Email хранится в нормализованном виде (trim + lowercase) и глобально уникален.
	Email string
	// Phone — опциональный телефон в одном из допустимых форматов.
	Phone     string
	CreatedAt time.Time
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Допустимы международный формат (+ и 7–15 цифр) и сгруппированный DDD-DDD-DDDD.
	phonePattern = regexp.MustCompile(`^(\+[0-9]{7,15}|[0-9]{3}-[0-9]{3}-[0-9]{4})$`)
)

// NormalizeEmail приводит email к канонической форме: обрезает пробелы и
// переводит в нижний регистр. Все сравнения и записи используют эту форму.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCustomerFields проверяет поля клиента и возвращает замечания
// в порядке объявления правил. Функция чистая: хранилище не трогается.
func ValidateCustomerFields(name, email, phone string) []error {
	var errs []error

	if strings.TrimSpace(name) == "" {
		errs = append(errs, ErrNameRequired)
	}

	switch normalized := NormalizeEmail(email); {
	case normalized == "":
		errs = append(errs, ErrEmailRequired)
	case !emailPattern.MatchString(normalized):
		errs = append(errs, ErrEmailInvalid)
	}

	if trimmed := strings.TrimSpace(phone); trimmed != "" && !phonePattern.MatchString(trimmed) {
		errs = append(errs, ErrPhoneInvalid)
	}

	return errs
}
