package backup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

// CatalogUseCase consultas y mantenimiento del catálogo de respaldos.
type CatalogUseCase struct {
	catalog repository.BackupCatalogRepository
	store   SnapshotStore
	metrics Metrics
	log     *logger.Logger
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(catalog repository.BackupCatalogRepository, store SnapshotStore, metrics Metrics, log *logger.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		catalog: catalog,
		store:   store,
		metrics: metricsOrNop(metrics),
		log:     log.Component("backup.catalog"),
	}
}

// List respaldos, opcionalmente de un solo tipo, más recientes primero.
func (uc *CatalogUseCase) List(ctx context.Context, typ entity.BackupType) ([]*dto.BackupResponse, error) {
	list, err := uc.catalog.List(ctx, typ)
	if err != nil {
		return nil, err
	}
	return toBackupResponses(list), nil
}

// ListForScope respaldos de un tenant o usuario.
func (uc *CatalogUseCase) ListForScope(ctx context.Context, scopeEntityID string) ([]*dto.BackupResponse, error) {
	if scopeEntityID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.catalog.ListForEntity(ctx, scopeEntityID)
	if err != nil {
		return nil, err
	}
	return toBackupResponses(list), nil
}

// Delete elimina el archivo (best-effort) y luego la entrada del catálogo.
func (uc *CatalogUseCase) Delete(ctx context.Context, backupID string) (*dto.DeleteBackupResponse, error) {
	start := time.Now()
	b, err := uc.catalog.Get(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: respaldo %s", domain.ErrNotFound, backupID)
	}
	if err := uc.store.Remove(b.Filename); err != nil {
		uc.log.Warn().Err(err).Str("backup_id", b.ID).Str("filename", b.Filename).Msg("no se pudo eliminar archivo de respaldo")
	}
	err = uc.catalog.Remove(ctx, backupID)
	uc.metrics.ObserveOperation(OpDelete, b.Type, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("backup_id", b.ID).Str("filename", b.Filename).Msg("respaldo eliminado")
	return &dto.DeleteBackupResponse{Success: true}, nil
}

// Statistics totales del catálogo por tipo, tamaño y extremos de fecha.
func (uc *CatalogUseCase) Statistics(ctx context.Context) (*dto.BackupStatistics, error) {
	list, err := uc.catalog.List(ctx, "")
	if err != nil {
		return nil, err
	}
	stats := &dto.BackupStatistics{ByType: make(map[string]int, len(entity.BackupTypes))}
	for _, t := range entity.BackupTypes {
		stats.ByType[string(t)] = 0
	}
	for _, b := range list {
		stats.Total++
		stats.ByType[string(b.Type)]++
		stats.TotalSizeBytes += b.SizeBytes
		created := b.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &created
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			stats.Newest = &created
		}
	}
	stats.TotalSizeMB = math.Round(float64(stats.TotalSizeBytes)/1024/1024*100) / 100
	return stats, nil
}

// ReconcileOrphans busca archivos de respaldo sin entrada en el catálogo (p. ej. una caída
// entre la escritura del archivo y el alta en el catálogo, o un borrado fallido en la retención).
// Con purge=true además los elimina.
func (uc *CatalogUseCase) ReconcileOrphans(ctx context.Context, purge bool) (*dto.ReconcileResult, error) {
	files, err := uc.store.List(ctx)
	if err != nil {
		return nil, err
	}
	list, err := uc.catalog.List(ctx, "")
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(list))
	for _, b := range list {
		known[b.Filename] = struct{}{}
	}

	res := &dto.ReconcileResult{Orphans: []string{}, Purged: purge}
	for _, f := range files {
		if _, ok := known[f]; ok {
			continue
		}
		res.Orphans = append(res.Orphans, f)
		ev := uc.log.Warn().Str("filename", f)
		if purge {
			if err := uc.store.Remove(f); err != nil {
				ev.Err(err).Msg("no se pudo eliminar archivo huérfano")
				continue
			}
			ev.Msg("archivo huérfano eliminado")
			continue
		}
		ev.Msg("archivo de respaldo sin entrada en el catálogo")
	}
	return res, nil
}
