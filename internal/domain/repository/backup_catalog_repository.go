package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// BackupCatalogRepository define el puerto de persistencia del catálogo de respaldos (DIP).
// Cada operación observa el último estado confirmado; las implementaciones serializan
// sus escrituras para que dos altas concurrentes no se pisen.
type BackupCatalogRepository interface {
	Append(ctx context.Context, b *entity.Backup) error
	// Get devuelve (nil, nil) si no existe.
	Get(ctx context.Context, id string) (*entity.Backup, error)
	// List filtra por tipo si typ no es vacío; orden created_at descendente.
	List(ctx context.Context, typ entity.BackupType) ([]*entity.Backup, error)
	ListForEntity(ctx context.Context, scopeEntityID string) ([]*entity.Backup, error)
	// Remove devuelve domain.ErrNotFound si el id no existe.
	Remove(ctx context.Context, id string) error
	// PurgeOlderThan elimina todas las entradas creadas antes del corte y devuelve cuántas.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
