package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
)

var _ backup.SnapshotTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunSnapshot abre una transacción REPEATABLE READ de solo lectura: todas las colecciones
// se leen desde la misma foto de la base.
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(repository.SnapshotReader) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(s *session) error {
		return fn(s)
	})
}

// RunRestore abre una transacción de escritura; Commit solo si fn no devuelve error.
func (r *TxRunner) RunRestore(ctx context.Context, fn func(repository.SnapshotWriter) error) error {
	return r.run(ctx, pgx.TxOptions{}, func(s *session) error {
		return fn(s)
	})
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(*session) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newSession(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// session repositorios atados a una misma transacción.
type session struct {
	*TenantRepo
	*UserRepo
	*CollectionRepo
}

var _ repository.SnapshotWriter = (*session)(nil)

func newSession(tx pgx.Tx) *session {
	return &session{
		TenantRepo:     NewTenantRepository(tx),
		UserRepo:       NewUserRepository(tx),
		CollectionRepo: NewCollectionRepository(tx),
	}
}
