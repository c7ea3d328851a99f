package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

// timestampLayout sello UTC de los nombres de archivo (ordenable lexicográficamente).
const timestampLayout = "20060102T150405.000000000Z"

// CaptureUseCase captura snapshots de un alcance y los registra en el catálogo.
type CaptureUseCase struct {
	catalog  repository.BackupCatalogRepository
	tx       SnapshotTxRunner
	store    SnapshotStore
	archiver SystemArchiver
	metrics  Metrics
	log      *logger.Logger
}

// NewCaptureUseCase construye el caso de uso de captura.
func NewCaptureUseCase(
	catalog repository.BackupCatalogRepository,
	tx SnapshotTxRunner,
	store SnapshotStore,
	archiver SystemArchiver,
	metrics Metrics,
	log *logger.Logger,
) *CaptureUseCase {
	return &CaptureUseCase{
		catalog:  catalog,
		tx:       tx,
		store:    store,
		archiver: archiver,
		metrics:  metricsOrNop(metrics),
		log:      log.Component("backup.capture"),
	}
}

// Create captura el alcance, escribe el archivo y solo entonces agrega la entrada al catálogo.
func (uc *CaptureUseCase) Create(ctx context.Context, scope entity.Scope, description string) (*dto.BackupResponse, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	start := time.Now()
	b, err := uc.create(ctx, scope, description)
	uc.metrics.ObserveOperation(OpCapture, scope.Type, time.Since(start), err)
	if err != nil {
		uc.log.Error().Err(err).Str("scope", scope.String()).Msg("captura de respaldo fallida")
		return nil, err
	}
	uc.log.Info().
		Str("backup_id", b.ID).
		Str("scope", scope.String()).
		Str("filename", b.Filename).
		Int64("size_bytes", b.SizeBytes).
		Dur("duration", time.Since(start)).
		Msg("respaldo creado")
	return toBackupResponse(b), nil
}

func (uc *CaptureUseCase) create(ctx context.Context, scope entity.Scope, description string) (*entity.Backup, error) {
	b := &entity.Backup{
		ID:            uuid.New().String(),
		Type:          scope.Type,
		ScopeEntityID: scope.ID,
		CreatedAt:     time.Now().UTC(),
		Description:   description,
	}
	if scope.IsSystem() {
		if err := uc.captureSystem(ctx, b); err != nil {
			return nil, err
		}
	} else if err := uc.captureScoped(ctx, scope, b); err != nil {
		return nil, err
	}
	if b.Description == "" {
		b.Description = defaultDescription(b)
	}
	if err := uc.catalog.Append(ctx, b); err != nil {
		// Sin entrada en el catálogo el archivo quedaría huérfano.
		if rmErr := uc.store.Remove(b.Filename); rmErr != nil {
			uc.log.Warn().Err(rmErr).Str("filename", b.Filename).Msg("no se pudo eliminar archivo tras fallo del catálogo")
		}
		return nil, fmt.Errorf("registrar respaldo en catálogo: %w", err)
	}
	return b, nil
}

func (uc *CaptureUseCase) captureScoped(ctx context.Context, scope entity.Scope, b *entity.Backup) error {
	var snap *entity.Snapshot
	err := uc.tx.RunSnapshot(ctx, func(r repository.SnapshotReader) error {
		var err error
		snap, b.ScopeEntityName, err = collect(ctx, r, scope)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("capturar %s: %w", scope, err)
	}

	b.Filename = snapshotFilename(scope, b.CreatedAt, b.ID)
	size, err := uc.store.Write(ctx, b.Filename, snap)
	if err != nil {
		return err
	}
	b.SizeBytes = size
	uc.log.Debug().Str("backup_id", b.ID).Interface("rows", snap.Count()).Msg("colecciones capturadas")
	return nil
}

// collect lee todas las colecciones del alcance. Devuelve también la etiqueta del alcance.
func collect(ctx context.Context, r repository.SnapshotReader, scope entity.Scope) (*entity.Snapshot, string, error) {
	snap := entity.NewSnapshot()
	var tenantID, label string

	switch scope.Type {
	case entity.BackupTypeTenant:
		t, err := r.Tenant(ctx, scope.ID)
		if err != nil {
			return nil, "", err
		}
		if t == nil {
			return nil, "", fmt.Errorf("%w: tenant %s", domain.ErrNotFound, scope.ID)
		}
		snap.Tenant = t
		tenantID = scope.ID
		label = t.String("name")
	case entity.BackupTypeUser:
		u, err := r.UserProfile(ctx, scope.ID)
		if err != nil {
			return nil, "", err
		}
		if u == nil {
			return nil, "", fmt.Errorf("%w: usuario %s", domain.ErrNotFound, scope.ID)
		}
		profile := entity.UserFromRow(u)
		t, err := r.Tenant(ctx, profile.TenantID)
		if err != nil {
			return nil, "", err
		}
		if t == nil {
			return nil, "", fmt.Errorf("%w: tenant %s del usuario %s", domain.ErrNotFound, profile.TenantID, scope.ID)
		}
		snap.User = u
		tenantID = profile.TenantID
		label = profile.DisplayName()
	}

	for _, c := range entity.InsertOrder(scope.Type) {
		rows, err := r.Rows(ctx, c, tenantID)
		if err != nil {
			return nil, "", fmt.Errorf("leer %s: %w", c.Name, err)
		}
		if rows == nil {
			rows = []entity.Row{}
		}
		snap.Collections[c.Name] = rows
	}
	return snap, label, nil
}

func (uc *CaptureUseCase) captureSystem(ctx context.Context, b *entity.Backup) error {
	b.Filename = systemFilename(b.CreatedAt, b.ID)
	if err := uc.archiver.Dump(ctx, uc.store.Path(b.Filename)); err != nil {
		if rmErr := uc.store.Remove(b.Filename); rmErr != nil {
			uc.log.Warn().Err(rmErr).Str("filename", b.Filename).Msg("no se pudo eliminar volcado parcial")
		}
		return fmt.Errorf("volcado de sistema: %w", err)
	}
	size, err := uc.store.Size(b.Filename)
	if err != nil {
		return err
	}
	b.SizeBytes = size
	return nil
}

func snapshotFilename(scope entity.Scope, at time.Time, id string) string {
	return fmt.Sprintf("%s_%s_%s_%s.json", scope.Type, scope.ID, at.UTC().Format(timestampLayout), id[:8])
}

func systemFilename(at time.Time, id string) string {
	return fmt.Sprintf("%s_%s_%s.sql", entity.BackupTypeSystem, at.UTC().Format(timestampLayout), id[:8])
}

func defaultDescription(b *entity.Backup) string {
	switch b.Type {
	case entity.BackupTypeTenant:
		return "Respaldo de tenant: " + b.ScopeEntityName
	case entity.BackupTypeUser:
		return "Respaldo de usuario: " + b.ScopeEntityName
	default:
		return "Respaldo completo del sistema"
	}
}
