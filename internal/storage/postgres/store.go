package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	// opTimeout ограничивает одиночные autocommit-операции репозиториев.
	opTimeout = 5 * time.Second
	// txTimeout ограничивает транзакцию целиком, включая batch-мутации.
	txTimeout = 30 * time.Second
)

// Store оборачивает SQL-подключение к PostgreSQL и реализует domain.UnitOfWork.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Customers возвращает autocommit-доступ к клиентам.
func (s *Store) Customers() domain.CustomerRepository {
	return &customerRepository{sess: &session{q: s.db}}
}

// Products возвращает autocommit-доступ к товарам.
func (s *Store) Products() domain.ProductRepository {
	return &productRepository{sess: &session{q: s.db}}
}

// Orders возвращает autocommit-доступ к заказам.
func (s *Store) Orders() domain.OrderRepository {
	return &orderRepository{sess: &session{q: s.db}}
}

// Outbox возвращает autocommit-доступ к очереди outbox.
func (s *Store) Outbox() domain.OutboxRepository {
	return &outboxRepository{sess: &session{q: s.db}}
}

// querier покрывает общие методы *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session связывает репозитории с конкретным querier: *sql.DB для autocommit
// либо *sql.Tx внутри открытой транзакции.
type session struct {
	q querier
	// txCtx установлен только внутри транзакции; autocommit-вызовы получают
	// собственный контекст с opTimeout.
	txCtx context.Context
}

func (s *session) opCtx() (context.Context, context.CancelFunc) {
	if s.txCtx != nil {
		return s.txCtx, func() {}
	}
	return context.WithTimeout(context.Background(), opTimeout)
}

// uniqueViolation возвращает имя нарушенного ограничения уникальности (код 23505).
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// referenceViolation транслирует нарушение внешнего ключа (код 23503)
// в доменную ошибку по имени ограничения.
func referenceViolation(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23503" {
		return nil, false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "customer"):
		return domain.ErrCustomerNotFound, true
	case strings.Contains(pgErr.ConstraintName, "product"):
		return domain.ErrProductNotFound, true
	default:
		return nil, false
	}
}

var _ domain.UnitOfWork = (*Store)(nil)
