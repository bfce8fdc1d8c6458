package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/instructor-payouts/internal/store"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

type scanner interface {
	Scan(dest ...any) error
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the Postgres implementation of store.Store.
type DB struct {
	repos
	pool *sql.DB
}

var _ store.Store = (*DB)(nil)

func NewDB(pool *sql.DB) *DB {
	return &DB{repos: repos{q: pool}, pool: pool}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) WithinTx(ctx context.Context, fn func(tx store.Repos) error) error {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(repos{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

type repos struct {
	q Querier
}

func (r repos) Users() store.UserRepository             { return NewUserRepository(r.q) }
func (r repos) Courses() store.CourseRepository         { return NewCourseRepository(r.q) }
func (r repos) Enrollments() store.EnrollmentRepository { return NewEnrollmentRepository(r.q) }
func (r repos) Payments() store.PaymentRepository       { return NewPaymentRepository(r.q) }
func (r repos) Payouts() store.PayoutRepository         { return NewPayoutRepository(r.q) }
func (r repos) PayoutEvents() store.PayoutEventRepository {
	return NewPayoutEventRepository(r.q)
}
func (r repos) TransactionLogs() store.TransactionLogRepository {
	return NewTransactionLogRepository(r.q)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
