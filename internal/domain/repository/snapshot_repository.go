package repository

import (
	"context"

	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// SnapshotReader lecturas de un alcance dentro de una transacción consistente.
type SnapshotReader interface {
	// Tenant fila completa del tenant; nil si no existe.
	Tenant(ctx context.Context, tenantID string) (entity.Row, error)
	// UserProfile fila no secreta del usuario; nil si no existe.
	UserProfile(ctx context.Context, userID string) (entity.Row, error)
	// Rows todas las filas de la colección para el tenant.
	Rows(ctx context.Context, c entity.Collection, tenantID string) ([]entity.Row, error)
}

// SnapshotWriter escrituras de una restauración acotada; siempre atado a una transacción.
type SnapshotWriter interface {
	SnapshotReader
	DeleteByTenant(ctx context.Context, c entity.Collection, tenantID string) (int64, error)
	Insert(ctx context.Context, c entity.Collection, rows []entity.Row) error
	UpdateTenant(ctx context.Context, st *entity.TenantState) error
}
