package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

// RestoreUseCase reproduce un respaldo sobre la base viva.
//
// Alcances tenant/user: una sola transacción, borrado hijos primero e inserción padres primero,
// todo o nada. Alcance system: camino separado, destructivo y sin rollback.
//
// No se toma ningún bloqueo de aplicación sobre el alcance: dos restauraciones simultáneas
// del mismo tenant deben serializarse por quien las invoca.
type RestoreUseCase struct {
	catalog  repository.BackupCatalogRepository
	tx       SnapshotTxRunner
	store    SnapshotStore
	archiver SystemArchiver
	metrics  Metrics
	log      *logger.Logger
}

// NewRestoreUseCase construye el motor de restauración.
func NewRestoreUseCase(
	catalog repository.BackupCatalogRepository,
	tx SnapshotTxRunner,
	store SnapshotStore,
	archiver SystemArchiver,
	metrics Metrics,
	log *logger.Logger,
) *RestoreUseCase {
	return &RestoreUseCase{
		catalog:  catalog,
		tx:       tx,
		store:    store,
		archiver: archiver,
		metrics:  metricsOrNop(metrics),
		log:      log.Component("backup.restore"),
	}
}

// Restore valida el respaldo contra el alcance destino y lo reproduce.
// Ante un fallo devuelve también el resultado con success=false y el mensaje del error subyacente.
func (uc *RestoreUseCase) Restore(ctx context.Context, scope entity.Scope, backupID string) (*dto.RestoreResult, error) {
	start := time.Now()
	err := uc.restore(ctx, scope, backupID)
	uc.metrics.ObserveOperation(OpRestore, scope.Type, time.Since(start), err)
	if err != nil {
		ev := uc.log.Error()
		if errors.Is(err, domain.ErrSystemRestore) {
			ev = ev.Str("severity", "critical")
		}
		ev.Err(err).Str("backup_id", backupID).Str("scope", scope.String()).Msg("restauración fallida")
		return &dto.RestoreResult{Success: false, Message: err.Error()}, err
	}
	uc.log.Info().
		Str("backup_id", backupID).
		Str("scope", scope.String()).
		Dur("duration", time.Since(start)).
		Msg("respaldo restaurado")
	return &dto.RestoreResult{
		Success: true,
		Message: fmt.Sprintf("Respaldo %s restaurado en %s", backupID, scope),
	}, nil
}

func (uc *RestoreUseCase) restore(ctx context.Context, scope entity.Scope, backupID string) error {
	if err := scope.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	b, err := uc.catalog.Get(ctx, backupID)
	if err != nil {
		return fmt.Errorf("consultar catálogo: %w", err)
	}
	if b == nil {
		return fmt.Errorf("%w: respaldo %s", domain.ErrNotFound, backupID)
	}
	if !b.Matches(scope) {
		return fmt.Errorf("%w: el respaldo %s pertenece a %s:%s, destino %s",
			domain.ErrScopeMismatch, b.ID, b.Type, b.ScopeEntityID, scope)
	}
	if scope.IsSystem() {
		return uc.restoreSystem(ctx, b)
	}
	return uc.restoreScoped(ctx, scope, b)
}

// restoreSystem borra la base completa, la recrea y reproduce el volcado.
// Si falla después del borrado no hay vuelta atrás.
func (uc *RestoreUseCase) restoreSystem(ctx context.Context, b *entity.Backup) error {
	if _, err := uc.store.Size(b.Filename); err != nil {
		return err
	}
	// El catálogo describe archivos en disco, no datos de negocio. Si vive en la misma
	// base, el volcado lo devolvería al momento de la captura.
	entries, err := uc.catalog.List(ctx, "")
	if err != nil {
		return fmt.Errorf("consultar catálogo: %w", err)
	}
	uc.log.Warn().
		Str("backup_id", b.ID).
		Str("filename", b.Filename).
		Msg("restauración de sistema: la base de datos será eliminada y recreada")
	if err := uc.archiver.Restore(ctx, uc.store.Path(b.Filename)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSystemRestore, err)
	}
	if err := uc.resyncCatalog(ctx, entries); err != nil {
		return fmt.Errorf("%w: reponer catálogo: %w", domain.ErrSystemRestore, err)
	}
	return nil
}

// resyncCatalog deja el catálogo con exactamente las entradas previas a la restauración.
func (uc *RestoreUseCase) resyncCatalog(ctx context.Context, want []*entity.Backup) error {
	if s, ok := uc.catalog.(interface{ EnsureSchema(context.Context) error }); ok {
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	have, err := uc.catalog.List(ctx, "")
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(want))
	for _, b := range want {
		keep[b.ID] = true
	}
	present := make(map[string]bool, len(have))
	removed := 0
	for _, b := range have {
		if keep[b.ID] {
			present[b.ID] = true
			continue
		}
		if err := uc.catalog.Remove(ctx, b.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		removed++
	}
	added := 0
	for _, b := range want {
		if present[b.ID] {
			continue
		}
		if err := uc.catalog.Append(ctx, b); err != nil {
			return err
		}
		added++
	}
	if added > 0 || removed > 0 {
		uc.log.Info().Int("added", added).Int("removed", removed).Msg("catálogo repuesto tras restauración de sistema")
	}
	return nil
}

func (uc *RestoreUseCase) restoreScoped(ctx context.Context, scope entity.Scope, b *entity.Backup) error {
	snap, err := uc.store.Read(ctx, b.Filename)
	if err != nil {
		return err
	}
	plan, err := newRestorePlan(scope, snap)
	if err != nil {
		return err
	}

	err = uc.tx.RunRestore(ctx, func(w repository.SnapshotWriter) error {
		if err := plan.checkLive(ctx, w); err != nil {
			return err
		}
		return plan.apply(ctx, w, uc.log)
	})
	if err != nil {
		if errors.Is(err, domain.ErrScopeMismatch) || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrRestoreTransaction, err)
	}
	return nil
}

// restorePlan snapshot ya validado contra el alcance, listo para aplicarse.
type restorePlan struct {
	scope    entity.Scope
	tenantID string
	snap     *entity.Snapshot
	tenant   *entity.TenantState // solo alcance tenant
}

// newRestorePlan valida el snapshot sin tocar la base: pertenencia al tenant destino,
// lista blanca de columnas y exactamente las colecciones del alcance.
func newRestorePlan(scope entity.Scope, snap *entity.Snapshot) (*restorePlan, error) {
	p := &restorePlan{scope: scope, snap: snap}

	switch scope.Type {
	case entity.BackupTypeTenant:
		if snap.Tenant == nil {
			return nil, fmt.Errorf("%w: falta el registro tenant", domain.ErrCorruptSnapshot)
		}
		st, err := entity.TenantStateFromRow(snap.Tenant)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
		}
		if st.ID != scope.ID {
			return nil, fmt.Errorf("%w: el snapshot es del tenant %s", domain.ErrScopeMismatch, st.ID)
		}
		p.tenant = st
		p.tenantID = scope.ID
	case entity.BackupTypeUser:
		if snap.User == nil {
			return nil, fmt.Errorf("%w: falta el registro user", domain.ErrCorruptSnapshot)
		}
		u := entity.UserFromRow(snap.User)
		if u.ID != scope.ID {
			return nil, fmt.Errorf("%w: el snapshot es del usuario %s", domain.ErrScopeMismatch, u.ID)
		}
		if u.TenantID == "" {
			return nil, fmt.Errorf("%w: usuario sin tenant", domain.ErrCorruptSnapshot)
		}
		if snap.Tenant != nil {
			return nil, fmt.Errorf("%w: un respaldo de usuario no incluye el registro tenant", domain.ErrCorruptSnapshot)
		}
		p.tenantID = u.TenantID
	}
	if scope.Type == entity.BackupTypeTenant && snap.User != nil {
		return nil, fmt.Errorf("%w: un respaldo de tenant no incluye el registro user", domain.ErrCorruptSnapshot)
	}

	order := entity.InsertOrder(scope.Type)
	inScope := make(map[string]bool, len(order))
	for _, c := range order {
		inScope[c.Name] = true
	}
	for name := range snap.Collections {
		if !inScope[name] {
			return nil, fmt.Errorf("%w: la colección %s no pertenece a un respaldo %s",
				domain.ErrCorruptSnapshot, name, scope.Type)
		}
	}

	for _, c := range order {
		rows, ok := snap.Collections[c.Name]
		if !ok {
			return nil, fmt.Errorf("%w: falta la colección %s", domain.ErrCorruptSnapshot, c.Name)
		}
		for _, row := range rows {
			if err := c.CheckRow(row); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
			}
			if got := row.String(entity.TenantColumn); got != p.tenantID {
				return nil, fmt.Errorf("%w: %s %s pertenece al tenant %q",
					domain.ErrScopeMismatch, c.Name, row.String("id"), got)
			}
		}
	}
	return p, nil
}

// checkLive compara el snapshot con el estado vivo, ya dentro de la transacción.
func (p *restorePlan) checkLive(ctx context.Context, w repository.SnapshotWriter) error {
	switch p.scope.Type {
	case entity.BackupTypeTenant:
		t, err := w.Tenant(ctx, p.tenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: tenant %s", domain.ErrNotFound, p.tenantID)
		}
	case entity.BackupTypeUser:
		u, err := w.UserProfile(ctx, p.scope.ID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("%w: usuario %s", domain.ErrNotFound, p.scope.ID)
		}
		if live := u.String(entity.TenantColumn); live != p.tenantID {
			return fmt.Errorf("%w: el usuario %s pertenece hoy al tenant %s, el respaldo al %s",
				domain.ErrScopeMismatch, p.scope.ID, live, p.tenantID)
		}
	}
	return nil
}

func (p *restorePlan) apply(ctx context.Context, w repository.SnapshotWriter, log *logger.Logger) error {
	for _, c := range entity.DeleteOrder(p.scope.Type) {
		n, err := w.DeleteByTenant(ctx, c, p.tenantID)
		if err != nil {
			return fmt.Errorf("borrar %s: %w", c.Name, err)
		}
		log.Debug().Str("collection", c.Name).Int64("rows", n).Msg("filas eliminadas")
	}
	for _, c := range entity.InsertOrder(p.scope.Type) {
		rows := c.SortRows(p.snap.Rows(c.Name))
		if len(rows) == 0 {
			continue
		}
		if err := w.Insert(ctx, c, rows); err != nil {
			return fmt.Errorf("insertar %s: %w", c.Name, err)
		}
		log.Debug().Str("collection", c.Name).Int("rows", len(rows)).Msg("filas insertadas")
	}
	if p.tenant != nil {
		if err := w.UpdateTenant(ctx, p.tenant); err != nil {
			return fmt.Errorf("actualizar tenant: %w", err)
		}
	}
	return nil
}
