// Package bootstrap arma el motor de respaldos a partir de la configuración.
// Lo comparten el servicio HTTP y el CLI de operador.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/archiver"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/filecatalog"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/storage"
	"github.com/jhoicas/Respaldo-api/pkg/config"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Engine casos de uso del motor con sus adaptadores.
type Engine struct {
	Capture   *backup.CaptureUseCase
	Restore   *backup.RestoreUseCase
	Catalog   *backup.CatalogUseCase
	Retention *backup.RetentionUseCase
	// Registry nil si las métricas están deshabilitadas.
	Registry *prometheus.Registry

	pool *pgxpool.Pool
}

// NewEngine abre el pool, prepara el catálogo configurado y construye los casos de uso.
func NewEngine(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Engine, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}

	catalog, err := newCatalog(ctx, cfg.Backup, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store, err := storage.NewFileStore(cfg.Backup.Dir)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var (
		registry *prometheus.Registry
		m        backup.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.NewBackupCollector(registry)
	}

	tx := postgres.NewTxRunner(pool)
	pg := archiver.NewPgArchiver(cfg.DB, cfg.Backup, log)

	log.Info().
		Str("dir", cfg.Backup.Dir).
		Str("catalog", cfg.Backup.CatalogDriver).
		Int("retention_days", cfg.Backup.RetentionDays).
		Msg("motor de respaldos listo")

	return &Engine{
		Capture:   backup.NewCaptureUseCase(catalog, tx, store, pg, m, log),
		Restore:   backup.NewRestoreUseCase(catalog, tx, store, pg, m, log),
		Catalog:   backup.NewCatalogUseCase(catalog, store, m, log),
		Retention: backup.NewRetentionUseCase(catalog, store, m, log, cfg.Backup.RetentionDays),
		Registry:  registry,
		pool:      pool,
	}, nil
}

// Close libera el pool.
func (e *Engine) Close() {
	e.pool.Close()
}

func newCatalog(ctx context.Context, cfg config.BackupConfig, pool *pgxpool.Pool) (repository.BackupCatalogRepository, error) {
	switch cfg.CatalogDriver {
	case config.CatalogDriverPostgres:
		repo := postgres.NewBackupCatalogRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return filecatalog.New(cfg.CatalogFile)
	}
}
