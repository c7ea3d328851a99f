package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
)

var _ repository.BackupCatalogRepository = (*BackupCatalogRepo)(nil)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS backup_catalog (
	id                text PRIMARY KEY,
	type              text NOT NULL CHECK (type IN ('system', 'tenant', 'user')),
	scope_entity_id   text,
	scope_entity_name text,
	filename          text NOT NULL UNIQUE,
	size_bytes        bigint NOT NULL,
	created_at        timestamptz NOT NULL,
	description       text
);
CREATE INDEX IF NOT EXISTS backup_catalog_scope_idx ON backup_catalog (scope_entity_id);
CREATE INDEX IF NOT EXISTS backup_catalog_created_idx ON backup_catalog (created_at DESC);`

const catalogColumns = `id, type, scope_entity_id, scope_entity_name, filename, size_bytes, created_at, description`

// BackupCatalogRepo catálogo en una tabla: cada alta y baja es una fila, sin reescrituras
// completas, así que varios procesos pueden compartirlo.
type BackupCatalogRepo struct {
	q Querier
}

// NewBackupCatalogRepository construye el adaptador del catálogo.
func NewBackupCatalogRepository(q Querier) *BackupCatalogRepo {
	return &BackupCatalogRepo{q: q}
}

// EnsureSchema crea la tabla del catálogo si no existe.
func (r *BackupCatalogRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, catalogSchema); err != nil {
		return fmt.Errorf("create backup_catalog: %w", err)
	}
	return nil
}

// Append inserta la entrada.
func (r *BackupCatalogRepo) Append(ctx context.Context, b *entity.Backup) error {
	query := `INSERT INTO backup_catalog (` + catalogColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		b.ID, string(b.Type), nullIfEmpty(b.ScopeEntityID), nullIfEmpty(b.ScopeEntityName),
		b.Filename, b.SizeBytes, b.CreatedAt, nullIfEmpty(b.Description),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: respaldo %s / %s", domain.ErrDuplicate, b.ID, b.Filename)
		}
		return fmt.Errorf("insert backup_catalog: %w", err)
	}
	return nil
}

// Get devuelve (nil, nil) si no existe.
func (r *BackupCatalogRepo) Get(ctx context.Context, id string) (*entity.Backup, error) {
	rows, err := r.q.Query(ctx, `SELECT `+catalogColumns+` FROM backup_catalog WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get backup: %w", err)
	}
	b, err := pgx.CollectOneRow(rows, scanBackup)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get backup: %w", err)
	}
	return b, nil
}

// List entradas, opcionalmente de un tipo, más recientes primero.
func (r *BackupCatalogRepo) List(ctx context.Context, typ entity.BackupType) ([]*entity.Backup, error) {
	query := `SELECT ` + catalogColumns + ` FROM backup_catalog
		WHERE ($1 = '' OR type = $1) ORDER BY created_at DESC`
	return r.list(ctx, query, string(typ))
}

// ListForEntity entradas de un tenant o usuario.
func (r *BackupCatalogRepo) ListForEntity(ctx context.Context, scopeEntityID string) ([]*entity.Backup, error) {
	query := `SELECT ` + catalogColumns + ` FROM backup_catalog
		WHERE scope_entity_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, scopeEntityID)
}

// Remove elimina la entrada; ErrNotFound si no existe.
func (r *BackupCatalogRepo) Remove(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM backup_catalog WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: respaldo %s", domain.ErrNotFound, id)
	}
	return nil
}

// PurgeOlderThan elimina las entradas anteriores al corte.
func (r *BackupCatalogRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM backup_catalog WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge backup_catalog: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *BackupCatalogRepo) list(ctx context.Context, query string, arg string) ([]*entity.Backup, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanBackup)
	if err != nil {
		return nil, fmt.Errorf("scan backup: %w", err)
	}
	return list, nil
}

func scanBackup(row pgx.CollectableRow) (*entity.Backup, error) {
	var (
		b                       entity.Backup
		typ                     string
		scopeID, scopeName, des *string
	)
	if err := row.Scan(&b.ID, &typ, &scopeID, &scopeName, &b.Filename, &b.SizeBytes, &b.CreatedAt, &des); err != nil {
		return nil, err
	}
	b.Type = entity.BackupType(typ)
	b.ScopeEntityID = deref(scopeID)
	b.ScopeEntityName = deref(scopeName)
	b.Description = deref(des)
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
