package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// BackupCreator captura de respaldos.
type BackupCreator interface {
	Create(ctx context.Context, scope entity.Scope, description string) (*dto.BackupResponse, error)
}

// BackupRestorer restauración de respaldos.
type BackupRestorer interface {
	Restore(ctx context.Context, scope entity.Scope, backupID string) (*dto.RestoreResult, error)
}

// BackupCatalog consultas y mantenimiento del catálogo.
type BackupCatalog interface {
	List(ctx context.Context, typ entity.BackupType) ([]*dto.BackupResponse, error)
	ListForScope(ctx context.Context, scopeEntityID string) ([]*dto.BackupResponse, error)
	Delete(ctx context.Context, backupID string) (*dto.DeleteBackupResponse, error)
	Statistics(ctx context.Context) (*dto.BackupStatistics, error)
	ReconcileOrphans(ctx context.Context, purge bool) (*dto.ReconcileResult, error)
}

// BackupRetention barrido de retención.
type BackupRetention interface {
	Cleanup(ctx context.Context, maxAgeDays int) (*dto.CleanupResult, error)
}

// BackupHandler endpoints de administración de respaldos (solo rol admin).
type BackupHandler struct {
	creator   BackupCreator
	restorer  BackupRestorer
	catalog   BackupCatalog
	retention BackupRetention
	timeout   time.Duration
}

// NewBackupHandler construye el handler. timeout acota cada operación (0 = sin límite).
func NewBackupHandler(creator BackupCreator, restorer BackupRestorer, catalog BackupCatalog, retention BackupRetention, timeout time.Duration) *BackupHandler {
	return &BackupHandler{
		creator:   creator,
		restorer:  restorer,
		catalog:   catalog,
		retention: retention,
		timeout:   timeout,
	}
}

func (h *BackupHandler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// List godoc
// @Summary      Listar respaldos
// @Tags         backups
// @Security     Bearer
// @Produce      json
// @Param        type  query  string  false  "system | tenant | user"
// @Success      200   {array}   dto.BackupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/admin/backups [get]
func (h *BackupHandler) List(c *fiber.Ctx) error {
	var typ entity.BackupType
	if q := c.Query("type"); q != "" {
		t, err := entity.ParseBackupType(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		typ = t
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.catalog.List(ctx, typ)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListForEntity godoc
// @Summary      Listar respaldos de un tenant o usuario
// @Tags         backups
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant o usuario"
// @Success      200  {array}  dto.BackupResponse
// @Router       /api/admin/backups/entity/{id} [get]
func (h *BackupHandler) ListForEntity(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.catalog.ListForScope(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Statistics godoc
// @Summary      Estadísticas del catálogo
// @Tags         backups
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BackupStatistics
// @Router       /api/admin/backups/statistics [get]
func (h *BackupHandler) Statistics(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.catalog.Statistics(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateSystem godoc
// @Summary      Respaldo completo del sistema (pg_dump)
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBackupRequest  false  "Descripción opcional"
// @Success      201   {object}  dto.BackupResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/admin/backups/system [post]
func (h *BackupHandler) CreateSystem(c *fiber.Ctx) error {
	return h.create(c, entity.SystemScope())
}

// CreateTenant godoc
// @Summary      Respaldo de un tenant
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID del tenant"
// @Param        body  body  dto.CreateBackupRequest  false  "Descripción opcional"
// @Success      201   {object}  dto.BackupResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/backups/tenant/{id} [post]
func (h *BackupHandler) CreateTenant(c *fiber.Ctx) error {
	return h.create(c, entity.TenantScope(c.Params("id")))
}

// CreateUser godoc
// @Summary      Respaldo de un usuario
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID del usuario"
// @Param        body  body  dto.CreateBackupRequest  false  "Descripción opcional"
// @Success      201   {object}  dto.BackupResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/backups/user/{id} [post]
func (h *BackupHandler) CreateUser(c *fiber.Ctx) error {
	return h.create(c, entity.UserScope(c.Params("id")))
}

func (h *BackupHandler) create(c *fiber.Ctx, scope entity.Scope) error {
	var in dto.CreateBackupRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.creator.Create(ctx, scope, in.Description)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RestoreSystem godoc
// @Summary      Restaurar la base completa (destructivo)
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        backupId  path  string              true  "ID del respaldo"
// @Param        body      body  dto.RestoreRequest  true  "confirm=true"
// @Success      200       {object}  dto.RestoreResult
// @Failure      409       {object}  dto.ErrorResponse
// @Failure      500       {object}  dto.ErrorResponse
// @Router       /api/admin/backups/restore/system/{backupId} [post]
func (h *BackupHandler) RestoreSystem(c *fiber.Ctx) error {
	return h.restore(c, entity.SystemScope())
}

// RestoreTenant godoc
// @Summary      Restaurar un tenant
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  string              true  "ID del tenant"
// @Param        backupId  path  string              true  "ID del respaldo"
// @Param        body      body  dto.RestoreRequest  true  "confirm=true"
// @Success      200       {object}  dto.RestoreResult
// @Failure      409       {object}  dto.ErrorResponse
// @Router       /api/admin/backups/restore/tenant/{id}/{backupId} [post]
func (h *BackupHandler) RestoreTenant(c *fiber.Ctx) error {
	return h.restore(c, entity.TenantScope(c.Params("id")))
}

// RestoreUser godoc
// @Summary      Restaurar un usuario
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  string              true  "ID del usuario"
// @Param        backupId  path  string              true  "ID del respaldo"
// @Param        body      body  dto.RestoreRequest  true  "confirm=true"
// @Success      200       {object}  dto.RestoreResult
// @Failure      409       {object}  dto.ErrorResponse
// @Router       /api/admin/backups/restore/user/{id}/{backupId} [post]
func (h *BackupHandler) RestoreUser(c *fiber.Ctx) error {
	return h.restore(c, entity.UserScope(c.Params("id")))
}

func (h *BackupHandler) restore(c *fiber.Ctx, scope entity.Scope) error {
	var in dto.RestoreRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.restorer.Restore(ctx, scope, c.Params("backupId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar respaldo (archivo y catálogo)
// @Tags         backups
// @Security     Bearer
// @Produce      json
// @Param        backupId  path  string  true  "ID del respaldo"
// @Success      200       {object}  dto.DeleteBackupResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Router       /api/admin/backups/{backupId} [delete]
func (h *BackupHandler) Delete(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.catalog.Delete(ctx, c.Params("backupId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cleanup godoc
// @Summary      Aplicar retención
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CleanupRequest  false  "days_to_keep (por defecto el configurado)"
// @Success      200   {object}  dto.CleanupResult
// @Router       /api/admin/backups/cleanup [post]
func (h *BackupHandler) Cleanup(c *fiber.Ctx) error {
	var in dto.CleanupRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.retention.Cleanup(ctx, in.DaysToKeep)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Detectar (y opcionalmente borrar) archivos sin entrada de catálogo
// @Tags         backups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  false  "purge"
// @Success      200   {object}  dto.ReconcileResult
// @Router       /api/admin/backups/reconcile [post]
func (h *BackupHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.catalog.ReconcileOrphans(ctx, in.Purge)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// writeError traduce la taxonomía de errores del motor a HTTP. El orden importa:
// ErrSystemRestore envuelve un ErrExternalTool y ErrCorruptSnapshot es un ErrBackupIO.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrSystemRestore):
		code = "SYSTEM_RESTORE_FAILED"
	case errors.Is(err, domain.ErrRestoreTransaction):
		code = "RESTORE_FAILED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrScopeMismatch):
		status, code = fiber.StatusConflict, "SCOPE_MISMATCH"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrCorruptSnapshot):
		status, code = fiber.StatusUnprocessableEntity, "CORRUPT_SNAPSHOT"
	case errors.Is(err, domain.ErrExternalTool):
		status, code = fiber.StatusBadGateway, "EXTERNAL_TOOL"
	case errors.Is(err, domain.ErrBackupIO):
		code = "BACKUP_IO"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = fiber.StatusGatewayTimeout, "TIMEOUT"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
