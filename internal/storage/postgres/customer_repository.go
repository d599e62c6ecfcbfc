package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type customerRepository struct {
	sess *session
}

// Create сохраняет клиента. Нарушение уникальности email, в том числе в момент
// коммита при гонке двух запросов, транслируется в domain.ErrEmailTaken.
func (r *customerRepository) Create(customer domain.Customer) error {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	_, err := r.sess.q.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`,
		customer.ID, customer.Name, customer.Email,
		nullableText(customer.Phone), customer.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "customers_email_key" {
				return domain.ErrEmailTaken
			}
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

func (r *customerRepository) Get(id string) (domain.Customer, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	var customer domain.Customer
	var phone sql.NullString

	err := r.sess.q.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Email, &phone, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	customer.Phone = phone.String

	return customer, nil
}

func (r *customerRepository) List() ([]domain.Customer, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	rows, err := r.sess.q.QueryContext(ctx, `
		SELECT id, name, email, phone, created_at
		FROM customers
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var customer domain.Customer
		var phone sql.NullString
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &phone, &customer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customer.Phone = phone.String
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}

	return customers, nil
}

func (r *customerRepository) ExistsByEmail(email string) (bool, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	var id string
	err := r.sess.q.QueryRowContext(ctx, `SELECT id FROM customers WHERE email = $1`, email).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check customer email: %w", err)
}

func nullableText(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
