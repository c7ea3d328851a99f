package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// CollectionRepo lectura, borrado e inserción genéricos de colecciones por tenant.
// Las sentencias salen del descriptor: tabla = nombre de la colección, columnas = lista blanca.
type CollectionRepo struct {
	q Querier
}

// NewCollectionRepository construye el repositorio sobre un pool o una transacción.
func NewCollectionRepository(q Querier) *CollectionRepo {
	return &CollectionRepo{q: q}
}

// Rows todas las filas del tenant, ordenadas por id.
func (r *CollectionRepo) Rows(ctx context.Context, c entity.Collection, tenantID string) ([]entity.Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY id`,
		columnList(c.Columns), pgx.Identifier{c.Name}.Sanitize(), pgx.Identifier{entity.TenantColumn}.Sanitize())
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", c.Name, err)
	}
	list, err := pgx.CollectRows(rows, rowToEntity)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.Name, err)
	}
	return list, nil
}

// DeleteByTenant borra todas las filas del tenant en la colección.
func (r *CollectionRepo) DeleteByTenant(ctx context.Context, c entity.Collection, tenantID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		pgx.Identifier{c.Name}.Sanitize(), pgx.Identifier{entity.TenantColumn}.Sanitize())
	tag, err := r.q.Exec(ctx, query, tenantID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", c.Name, withConstraint(err))
	}
	return tag.RowsAffected(), nil
}

// Insert inserta fila a fila, en el orden recibido. Solo se escriben columnas de la
// lista blanca presentes en la fila; las ausentes toman el default de la tabla.
func (r *CollectionRepo) Insert(ctx context.Context, c entity.Collection, rows []entity.Row) error {
	for _, row := range rows {
		cols := make([]string, 0, len(row))
		args := make([]any, 0, len(row))
		for _, col := range c.Columns {
			v, ok := row[col]
			if !ok {
				continue
			}
			cols = append(cols, col)
			args = append(args, toParam(v))
		}
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			pgx.Identifier{c.Name}.Sanitize(), columnList(cols), placeholders(len(cols)))
		if _, err := r.q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s %s: %w", c.Name, row.String("id"), withConstraint(err))
		}
	}
	return nil
}
