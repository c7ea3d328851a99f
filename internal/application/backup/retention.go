package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

// DefaultRetentionDays antigüedad máxima si no se configura otra.
const DefaultRetentionDays = 30

// RetentionUseCase elimina respaldos más antiguos que un umbral.
// El catálogo se trata como índice con TTL: las entradas vencidas se purgan aunque
// su archivo no se haya podido borrar; esos nombres se informan en FailedFiles.
type RetentionUseCase struct {
	catalog     repository.BackupCatalogRepository
	store       SnapshotStore
	metrics     Metrics
	log         *logger.Logger
	defaultDays int
	now         func() time.Time
}

// NewRetentionUseCase construye el barrido de retención.
func NewRetentionUseCase(
	catalog repository.BackupCatalogRepository,
	store SnapshotStore,
	metrics Metrics,
	log *logger.Logger,
	defaultDays int,
) *RetentionUseCase {
	if defaultDays <= 0 {
		defaultDays = DefaultRetentionDays
	}
	return &RetentionUseCase{
		catalog:     catalog,
		store:       store,
		metrics:     metricsOrNop(metrics),
		log:         log.Component("backup.retention"),
		defaultDays: defaultDays,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *RetentionUseCase) WithClock(now func() time.Time) *RetentionUseCase {
	uc.now = now
	return uc
}

// Cleanup borra archivos (best-effort) y purga del catálogo todo lo anterior al corte.
// maxAgeDays <= 0 usa el valor configurado.
func (uc *RetentionUseCase) Cleanup(ctx context.Context, maxAgeDays int) (*dto.CleanupResult, error) {
	days := maxAgeDays
	if days <= 0 {
		days = uc.defaultDays
	}
	cutoff := uc.now().AddDate(0, 0, -days)

	all, err := uc.catalog.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listar catálogo: %w", err)
	}

	var failed, removed []string
	for _, b := range all {
		if !b.OlderThan(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			uc.dropEntries(ctx, removed)
			return nil, err
		}
		if err := uc.store.Remove(b.Filename); err != nil {
			failed = append(failed, b.Filename)
			uc.log.Warn().Err(err).
				Str("backup_id", b.ID).
				Str("filename", b.Filename).
				Msg("no se pudo eliminar archivo de respaldo vencido")
			continue
		}
		removed = append(removed, b.ID)
	}

	n, err := uc.catalog.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("purgar catálogo: %w", err)
	}
	uc.metrics.ObserveCleanup(n, len(failed))
	uc.log.Info().
		Int("deleted", n).
		Int("failed_files", len(failed)).
		Int("days", days).
		Time("cutoff", cutoff).
		Msg("limpieza de respaldos completada")

	return &dto.CleanupResult{
		DeletedCount: n,
		Message:      fmt.Sprintf("Se eliminaron %d respaldos con más de %d días", n, days),
		FailedFiles:  failed,
	}, nil
}

// dropEntries quita del catálogo las entradas cuyos archivos ya se borraron cuando la
// limpieza se interrumpe, para que no queden apuntando a archivos inexistentes.
func (uc *RetentionUseCase) dropEntries(ctx context.Context, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := uc.catalog.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("backup_id", id).Msg("no se pudo quitar del catálogo un respaldo ya borrado")
		}
	}
}
