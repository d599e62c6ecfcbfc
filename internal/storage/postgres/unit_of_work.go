package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// WithinTx выполняет fn в одной транзакции: commit при nil, rollback при ошибке.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	sqlTx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	tx := &txSession{session: session{q: sqlTx, txCtx: txCtx}, tx: sqlTx, ctx: txCtx}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txSession — открытая транзакция с поддержкой вложенных scope через savepoint.
type txSession struct {
	session
	tx  *sql.Tx
	ctx context.Context
	seq int
}

func (t *txSession) Customers() domain.CustomerRepository {
	return &customerRepository{sess: &t.session}
}

func (t *txSession) Products() domain.ProductRepository {
	return &productRepository{sess: &t.session}
}

func (t *txSession) Orders() domain.OrderRepository {
	return &orderRepository{sess: &t.session}
}

func (t *txSession) Outbox() domain.OutboxRepository {
	return &outboxRepository{sess: &t.session}
}

// WithNestedScope выполняет fn внутри savepoint. При ошибке откатывается только
// savepoint: работа, уже принятая внешней транзакцией, не затрагивается.
func (t *txSession) WithNestedScope(fn func(domain.Store) error) (bool, error) {
	t.seq++
	name := fmt.Sprintf("sp_%d", t.seq)

	if _, err := t.tx.ExecContext(t.ctx, "SAVEPOINT "+name); err != nil {
		return false, fmt.Errorf("create savepoint %s: %w", name, err)
	}

	if err := fn(t); err != nil {
		if _, rbErr := t.tx.ExecContext(t.ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return false, fmt.Errorf("rollback to savepoint %s: %v (scope error: %w)", name, rbErr, err)
		}
		return false, err
	}

	if _, err := t.tx.ExecContext(t.ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return false, fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return true, nil
}

var _ domain.Tx = (*txSession)(nil)
