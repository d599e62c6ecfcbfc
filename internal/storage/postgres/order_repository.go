package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type orderRepository struct {
	sess *session
}

// Create сохраняет заказ вместе со связками заказ-товар. Внутри открытой
// транзакции пишет напрямую; в autocommit-режиме открывает собственную,
// чтобы заказ и его связки были видны только целиком.
func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	if tx, ok := r.sess.q.(*sql.Tx); ok {
		return r.createIn(ctx, tx, order)
	}

	db, ok := r.sess.q.(*sql.DB)
	if !ok {
		return fmt.Errorf("unsupported querier for order create")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := r.createIn(ctx, tx, order); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

func (r *orderRepository) createIn(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, total_amount, order_date, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, order.ID, order.CustomerID, order.TotalAmount, order.OrderDate, order.CreatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrDuplicateID
		}
		if mapped, ok := referenceViolation(err); ok {
			return mapped
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for position, productID := range order.ProductIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_products (order_id, product_id, position)
			VALUES ($1,$2,$3)
		`, order.ID, productID, position); err != nil {
			if mapped, ok := referenceViolation(err); ok {
				return mapped
			}
			return fmt.Errorf("insert order product: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	var order domain.Order
	err := r.sess.q.QueryRowContext(ctx, `
		SELECT id, customer_id, total_amount, order_date, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.TotalAmount, &order.OrderDate, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.sess.q.QueryContext(ctx, `
		SELECT product_id
		FROM order_products
		WHERE order_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		if err := rows.Scan(&productID); err != nil {
			return domain.Order{}, fmt.Errorf("scan order product: %w", err)
		}
		order.ProductIDs = append(order.ProductIDs, productID)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("iterate order products: %w", err)
	}

	return order, nil
}

// List возвращает заказы с наборами товаров за два запроса: сами заказы и одна
// сгруппированная выборка связок, без отдельного запроса на каждый заказ.
func (r *orderRepository) List() ([]domain.Order, error) {
	ctx, cancel := r.sess.opCtx()
	defer cancel()

	rows, err := r.sess.q.QueryContext(ctx, `
		SELECT id, customer_id, total_amount, order_date, created_at
		FROM orders
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[string]int)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.TotalAmount, &order.OrderDate, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	linkRows, err := r.sess.q.QueryContext(ctx, `
		SELECT order_id, product_id
		FROM order_products
		ORDER BY order_id ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var orderID, productID string
		if err := linkRows.Scan(&orderID, &productID); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].ProductIDs = append(orders[i].ProductIDs, productID)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order products: %w", err)
	}

	return orders, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
