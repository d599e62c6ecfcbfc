package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type productRepository struct {
	sess *session
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	_, err := r.sess.q.ExecContext(ctx, `
		INSERT INTO products (id, name, price, stock)
		VALUES ($1,$2,$3,$4)
	`, product.ID, product.Name, product.Price, product.Stock)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	var product domain.Product
	err := r.sess.q.QueryRowContext(ctx, `
		SELECT id, name, price, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Price, &product.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) List() ([]domain.Product, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	rows, err := r.sess.q.QueryContext(ctx, `
		SELECT id, name, price, stock
		FROM products
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
